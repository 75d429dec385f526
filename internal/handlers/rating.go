package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tutorlink/internal/models"
	"tutorlink/internal/services"
	"tutorlink/internal/utils"
)

type RatingHandler struct {
	db  *gorm.DB
	svc *services.RatingService
}

func NewRatingHandler(database *gorm.DB, svc *services.RatingService) *RatingHandler {
	return &RatingHandler{db: database, svc: svc}
}

// List handles GET /api/course/:courseId/ratings
func (h *RatingHandler) List(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))

	var course models.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		Fail(c, http.StatusNotFound, "course not found")
		return
	}

	ratings := []models.Rating{}
	err := h.db.Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at DESC, id DESC").
		Find(&ratings).Error
	if err != nil {
		FailErr(c, "listing ratings", err)
		return
	}
	for i := range ratings {
		ratings[i].UserName = ratings[i].User.Name
	}

	OK(c, gin.H{
		"ratings":      ratings,
		"avg_rating":   course.AvgRating,
		"rating_count": course.RatingCount,
	})
}

// Rate handles POST /api/course/:courseId/ratings. A second rating by the
// same user replaces the first.
func (h *RatingHandler) Rate(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))
	user := CurrentUser(c)

	var course models.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		Fail(c, http.StatusNotFound, "course not found")
		return
	}

	var req struct {
		Score  int    `json:"rating"`
		Review string `json:"review"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Score < 1 || req.Score > 5 {
		Fail(c, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	rating := models.Rating{CourseID: courseID, UserID: user.ID}
	err := h.db.Where("course_id = ? AND user_id = ?", courseID, user.ID).
		FirstOrCreate(&rating).Error
	if err != nil {
		FailErr(c, "saving rating", err)
		return
	}
	rating.Score = req.Score
	rating.Review = strings.TrimSpace(req.Review)
	if err := h.db.Save(&rating).Error; err != nil {
		FailErr(c, "saving rating", err)
		return
	}

	h.svc.ScheduleUpdate(courseID)
	OK(c, gin.H{"ratingID": rating.ID})
}

// Delete handles DELETE /api/course/:courseId/ratings: removes the caller's
// own rating.
func (h *RatingHandler) Delete(c *gin.Context) {
	courseID := utils.StringToUint(c.Param("courseId"))
	user := CurrentUser(c)

	result := h.db.Where("course_id = ? AND user_id = ?", courseID, user.ID).
		Delete(&models.Rating{})
	if result.Error != nil {
		FailErr(c, "deleting rating", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		Fail(c, http.StatusNotFound, "rating not found")
		return
	}

	h.svc.ScheduleUpdate(courseID)
	OK(c, gin.H{"deleted": true})
}
