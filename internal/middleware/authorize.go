package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"backoffice/api/internal/apperror"
	"backoffice/api/internal/models"
)

// RequireRoles must run after Auth.
func RequireRoles(roles ...models.AdminRole) gin.HandlerFunc {
	roleSet := make(map[models.AdminRole]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
		names = append(names, string(role))
	}
	forbidden := apperror.Forbidden("Only " + strings.Join(names, ", ") + " can perform this action")

	return func(c *gin.Context) {
		admin, ok := CurrentAdmin(c)
		if !ok {
			abortWithError(c, errUnauthorized)
			return
		}

		if _, ok := roleSet[admin.Role]; !ok {
			abortWithError(c, forbidden)
			return
		}

		c.Next()
	}
}
