package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tutorlink/internal/middleware"
	"tutorlink/internal/models"
	"tutorlink/internal/services"
)

// OK writes the success payload shape every endpoint shares.
func OK(c *gin.Context, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["success"] = true
	c.JSON(http.StatusOK, payload)
}

func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "message": message})
}

// FailErr maps service errors onto the HTTP taxonomy: validation 400,
// missing entity 404, anything else is a storage failure logged with the
// operation name and reported as 500.
func FailErr(c *gin.Context, op string, err error) {
	switch {
	case services.IsValidation(err):
		Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		Fail(c, http.StatusNotFound, "not found")
	default:
		log.Printf("Error %s: %v", op, err)
		Fail(c, http.StatusInternalServerError, "internal error")
	}
}

// CurrentUser returns the identity resolved by middleware.RequireUser.
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(middleware.CheckUserKey).(*models.User)
}

// requireCourseOwner loads the course and verifies the caller owns it (or is
// an admin). Writes the error response itself when the check fails.
func requireCourseOwner(c *gin.Context, database *gorm.DB, courseID uint) (*models.Course, bool) {
	var course models.Course
	if err := database.First(&course, courseID).Error; err != nil {
		Fail(c, http.StatusNotFound, "course not found")
		return nil, false
	}

	user := CurrentUser(c)
	if course.OwnerID != user.ID && !user.IsAdmin() {
		Fail(c, http.StatusForbidden, "only the course owner can do this")
		return nil, false
	}
	return &course, true
}
