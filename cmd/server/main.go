package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tutorlink/internal/db"
	"tutorlink/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db.Init()

	r := gin.Default()
	router.RegisterRoutes(r, db.DB)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
