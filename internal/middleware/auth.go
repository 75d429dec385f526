package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tutorlink/internal/models"
	"tutorlink/internal/utils"
)

const CheckUserKey = "user"

// RequireUser resolves the caller identity from the pre-validated X-User-ID
// header set by the authenticating front door. Requests without a resolvable
// user are rejected; handlers downstream can rely on the context user.
func RequireUser(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := utils.StringToUint(c.GetHeader("X-User-ID"))
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing or invalid X-User-ID header",
			})
			return
		}

		var user models.User
		if err := database.First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "unknown user",
			})
			return
		}

		c.Set(CheckUserKey, &user)
		c.Next()
	}
}
