package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/recipe-hub/recipe-hub/internal/models"
	"github.com/recipe-hub/recipe-hub/internal/repository"
)

const contextCurrentUserKey = "auth_current_user"

// RequireActiveUser loads the authenticated account and rejects anything
// that is not active. Blocked and deleted accounts keep valid tokens
// until expiry, so the status check has to happen per request.
func RequireActiveUser(userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(GetUserID(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token subject"})
			return
		}

		user, err := userRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to load account"})
			return
		}
		if user == nil || !user.IsActive() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Account is not active"})
			return
		}

		c.Set(contextCurrentUserKey, user)
		c.Next()
	}
}

// RequireAdmin must run after NewJWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next()
	}
}

func GetCurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(contextCurrentUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
