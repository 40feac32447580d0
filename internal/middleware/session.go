package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/service"
)

// SessionValidator checks a token's JTI against the user's active session.
type SessionValidator interface {
	ValidateSession(ctx context.Context, userID identity.ID, jti string) error
}

// CheckSingleSession rejects tokens whose JTI is no longer the user's active
// session: the user logged in elsewhere or logged out.
func CheckSingleSession(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		err := sessions.ValidateSession(c.Request.Context(), claims.UserID, claims.ID)
		switch {
		case errors.Is(err, service.ErrSessionInvalidated):
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		case err != nil:
			_ = c.Error(err)
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Next()
	}
}
