// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kucukkal/dealer-backend/internal/models"
	"github.com/kucukkal/dealer-backend/internal/utils"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		// Set user info in context
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", models.Role(claims.Role))
		c.Set("location", claims.Location)
		c.Next()
	}
}

// RolesRequired allows the request through only when the authenticated
// role is in the allow list. Runs after AuthRequired.
func RolesRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := utils.GetRoleFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c, "Operation not permitted for role "+string(role))
		c.Abort()
	}
}

func AdminRequired() gin.HandlerFunc {
	return RolesRequired(models.RoleAdmin)
}
