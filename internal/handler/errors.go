package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/middleware"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/service"
	"github.com/rs/zerolog"
)

// failWithError maps a service error onto the response envelope. Errors
// that match no known type are logged and reported as 500.
func failWithError(c *gin.Context, log zerolog.Logger, err error) {
	var (
		validation   *apperror.ValidationError
		insufficient *apperror.InsufficientQuestionsError
		invalid      *apperror.InvalidStateError
	)

	switch {
	case errors.As(err, &validation):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{validation.Field: validation.Reason})
	case errors.As(err, &insufficient):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrInsufficientQuestions, insufficient.Error())
	case errors.As(err, &invalid):
		response.FailWithMessage(c, http.StatusConflict, response.ErrCode(invalid.Code()), invalid.Reason())
	case errors.Is(err, apperror.ErrNotPlanOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotPlanOwner)
	case errors.Is(err, apperror.ErrUnauthorized):
		response.Fail(c, http.StatusForbidden, response.ErrNotPlanParticipant)
	case errors.Is(err, apperror.ErrNotFound):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, err.Error())
	case errors.Is(err, apperror.ErrConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", response.RequestID(c)).
			Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// pathID parses a path parameter into an ID. It writes the 400 response
// itself and reports false on failure.
func pathID(c *gin.Context, name string) (identity.ID, bool) {
	id, err := identity.Parse(name, c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// actor returns the caller of an authenticated route.
func actor(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return service.Actor{}, false
	}
	return claims.Actor(), true
}
