package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
)

// RequireRole lets the request through when the caller holds at least one
// of roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if claims.Actor().HasRole(roles...) {
			c.Next()
			return
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrRoleRequired)
	}
}
