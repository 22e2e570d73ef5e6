package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/utils"
)

// WebSocketAuthMiddleware authenticates feed connections via a query token,
// since browsers cannot set headers on websocket upgrades.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("role", models.Role(claims.Role))
		c.Set("user_id", claims.UserID)

		c.Next()
	}
}
