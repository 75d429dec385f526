package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tutorlink/internal/handlers"
	"tutorlink/internal/middleware"
	"tutorlink/internal/services"
)

// RegisterRoutes wires every API route onto the engine.
func RegisterRoutes(r *gin.Engine, database *gorm.DB) {
	mail := services.NewMailService()
	notifier := services.NewNotificationService(database, mail)
	ratingSvc := services.NewRatingService(database)

	courseHandler := handlers.NewCourseHandler(database, notifier)
	contentHandler := handlers.NewContentHandler(database, notifier)
	forumHandler := handlers.NewForumHandler(database, notifier)
	notificationHandler := handlers.NewNotificationHandler(database, notifier)
	ratingHandler := handlers.NewRatingHandler(database, ratingSvc)
	dashboardHandler := handlers.NewDashboardHandler(database, notifier)
	profileHandler := handlers.NewProfileHandler(database)

	api := r.Group("/api")

	// Public reads.
	api.GET("/all_courses", courseHandler.ListAll)
	api.GET("/courses/home", courseHandler.Home)
	api.GET("/courses/:courseId", courseHandler.Get)
	api.GET("/enrollment/:courseId/:userId", courseHandler.CheckEnrollment)
	api.GET("/library-materials", contentHandler.ListLibraryMaterials)
	api.GET("/profile/:userId", profileHandler.Get)
	api.GET("/course/:courseId/chapters", contentHandler.ListChapters)
	api.GET("/course/:courseId/materials", contentHandler.ListMaterials)
	api.GET("/course/:courseId/schedule", contentHandler.ListSchedule)
	api.GET("/course/:courseId/ratings", ratingHandler.List)
	api.GET("/course/:courseId/forum/threads", forumHandler.ListThreads)
	api.GET("/course/:courseId/forum/threads/:threadId", forumHandler.ThreadDetail)

	// Everything below requires a resolved user.
	authed := api.Group("/", middleware.RequireUser(database))

	authed.POST("/courses", courseHandler.Create)
	authed.PUT("/courses/:courseId", courseHandler.Update)
	authed.POST("/enrol", courseHandler.Enroll)
	authed.POST("/enroll-request", courseHandler.EnrollRequest)
	authed.GET("/course/:courseId/enroll-requests", courseHandler.ListEnrollRequests)
	authed.POST("/enroll-requests/:id/approve", courseHandler.ApproveEnrollRequest)
	authed.POST("/enroll-requests/:id/reject", courseHandler.RejectEnrollRequest)

	authed.POST("/course/:courseId/chapters", contentHandler.AddChapter)
	authed.POST("/course/:courseId/materials", contentHandler.AddMaterial)
	authed.DELETE("/course/:courseId/materials", contentHandler.DeleteMaterial)
	authed.POST("/course/:courseId/schedule", contentHandler.AddScheduleItem)

	authed.POST("/course/:courseId/ratings", ratingHandler.Rate)
	authed.DELETE("/course/:courseId/ratings", ratingHandler.Delete)

	authed.POST("/course/:courseId/forum/threads", forumHandler.CreateThread)
	authed.POST("/course/:courseId/forum/threads/:threadId/reply", forumHandler.Reply)
	authed.DELETE("/course/:courseId/forum/threads/:threadId", forumHandler.DeleteThread)
	authed.POST("/course/:courseId/forum/answers/:answerId/followup", forumHandler.FollowUp)
	authed.DELETE("/course/:courseId/forum/answers/:answerId", forumHandler.DeleteAnswer)

	authed.GET("/notifications", notificationHandler.List)
	authed.GET("/notifications/unread", notificationHandler.ListUnread)
	authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	authed.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
	authed.PUT("/notifications/:id/read", notificationHandler.MarkRead)
	authed.DELETE("/notifications/:id", notificationHandler.Delete)

	authed.GET("/dashboard", dashboardHandler.Show)
	authed.GET("/course/:courseId/progress", dashboardHandler.CourseProgress)
	authed.PUT("/profile/:userId", profileHandler.Update)
}
