package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tutorlink/internal/models"
	"tutorlink/internal/utils"
)

type ProfileHandler struct {
	db *gorm.DB
}

func NewProfileHandler(database *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: database}
}

// Get handles GET /api/profile/:userId
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := utils.StringToUint(c.Param("userId"))

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		Fail(c, http.StatusNotFound, "user not found")
		return
	}
	OK(c, gin.H{"user": user})
}

// Update handles PUT /api/profile/:userId. Callers may edit their own
// profile; admins may edit anyone's.
func (h *ProfileHandler) Update(c *gin.Context) {
	caller := CurrentUser(c)
	userID := utils.StringToUint(c.Param("userId"))

	if userID != caller.ID && !caller.IsAdmin() {
		Fail(c, http.StatusForbidden, "not allowed to edit this profile")
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		Fail(c, http.StatusNotFound, "user not found")
		return
	}

	var req struct {
		Name   string `json:"name"`
		Role   string `json:"current_role"`
		Email  string `json:"email"`
		Detail string `json:"more_detail"`
	}
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Name) == "" || req.Role == "" || strings.TrimSpace(req.Email) == "" {
		Fail(c, http.StatusBadRequest, "name, current_role and email are required")
		return
	}
	switch req.Role {
	case models.RoleStudent, models.RoleTutor, models.RoleAdmin:
	default:
		Fail(c, http.StatusBadRequest, "invalid current_role")
		return
	}
	// Only admins may grant the admin role.
	if req.Role == models.RoleAdmin && !caller.IsAdmin() {
		Fail(c, http.StatusForbidden, "not allowed to set this role")
		return
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Role = req.Role
	user.Email = strings.TrimSpace(req.Email)
	user.Detail = req.Detail

	if err := h.db.Save(&user).Error; err != nil {
		FailErr(c, "updating user profile", err)
		return
	}
	OK(c, gin.H{"userID": user.ID, "message": "User profile updated"})
}
