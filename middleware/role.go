package middleware

import (
	"net/http"

	"bloodsync/models"
	"bloodsync/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole admits callers holding one of roles. It must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Authentication required")
			return
		}
		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		utils.JSONError(c, http.StatusForbidden, utils.CodeForbidden, "You do not have access to this resource")
	}
}
