package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const UserIDKey = "user_id"

// ValidateUser is a stubbed authentication middleware that extracts user ID from X-User-ID header
func ValidateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr := c.GetHeader("X-User-ID")
		if userIDStr == "" {
			c.Next()
			return
		}

		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			c.Next()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
