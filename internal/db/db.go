package db

import (
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tutorlink/internal/models"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=tutorlink port=5432 sslmode=disable TimeZone=UTC"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")
}

// Migrate creates/updates the schema. Separated from Init so tests can run
// it against their own database handle.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.EnrollmentRequest{},
		&models.Chapter{},
		&models.Material{},
		&models.LibraryMaterial{},
		&models.ScheduleItem{},
		&models.Thread{},
		&models.Answer{},
		&models.Notification{},
		&models.Rating{},
	)
}
