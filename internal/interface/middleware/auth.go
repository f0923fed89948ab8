package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	"github.com/perpusgo/lending-api/pkg/helpers"
	"github.com/perpusgo/lending-api/pkg/response"
)

// StaffOnly validates a staff bearer token and requires a librarian or admin
// role. It sets staffID and staffRole in the Gin context on success.
func StaffOnly(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			resp := response.Error[any](c, http.StatusUnauthorized, "missing bearer token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		claims, err := jwt.ParseStaffToken(token)
		if err != nil {
			resp := response.Error[any](c, http.StatusUnauthorized, "invalid token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		role := entity.Role(claims.Role)
		if role != entity.RoleLibrarian && role != entity.RoleAdmin {
			resp := response.Error[any](c, http.StatusForbidden, "staff role required", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Set("staffID", claims.UserID)
		c.Set("staffRole", claims.Role)
		c.Next()
	}
}
