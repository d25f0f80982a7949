package middleware

import (
	"bloodsync/models"

	"github.com/gin-gonic/gin"
)

// AdminOnly restricts a route group to callers with the admin role.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
