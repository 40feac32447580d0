package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, route string, target string, h gin.HandlerFunc) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	r := gin.New()
	r.GET(route, h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestFailWithError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"validation", apperror.Validation("topics", "must list at least one topic"), http.StatusBadRequest, response.ErrValidation},
		{"insufficient", &apperror.InsufficientQuestionsError{Bucket: "topic 10", Found: 2, Needed: 5}, http.StatusBadRequest, response.ErrInsufficientQuestions},
		{"not started", &apperror.InvalidStateError{Op: "submit", Status: "NOT_STARTED"}, http.StatusConflict, response.ErrTestNotStarted},
		{"not paused", &apperror.InvalidStateError{Op: "resume", Status: "IN_PROGRESS"}, http.StatusConflict, response.ErrTestNotPaused},
		{"not owner", apperror.ErrNotPlanOwner, http.StatusForbidden, response.ErrNotPlanOwner},
		{"not participant", fmt.Errorf("start: %w", apperror.ErrUnauthorized), http.StatusForbidden, response.ErrNotPlanParticipant},
		{"not found", apperror.NotFound("test plan", "7"), http.StatusNotFound, response.ErrNotFound},
		{"conflict", apperror.ErrConflict, http.StatusConflict, response.ErrConflict},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, body := serve(t, "/x", "/x", func(c *gin.Context) {
				failWithError(c, zerolog.Nop(), tc.err)
			})

			assert.Equal(t, tc.wantStatus, w.Code)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.wantCode, body.Error.Code)
		})
	}
}

func TestFailWithError_ValidationField(t *testing.T) {
	_, body := serve(t, "/x", "/x", func(c *gin.Context) {
		failWithError(c, zerolog.Nop(), apperror.Validation("subtopics[1]", "does not belong to a listed topic"))
	})

	require.NotNil(t, body.Error)
	assert.Equal(t, map[string]string{"subtopics[1]": "does not belong to a listed topic"}, body.Error.Fields)
}

func TestPathID(t *testing.T) {
	tests := []struct {
		target     string
		wantStatus int
	}{
		{"/plans/9007199254740993", http.StatusOK},
		{"/plans/abc", http.StatusBadRequest},
		{"/plans/0", http.StatusBadRequest},
		{"/plans/-4", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			w, body := serve(t, "/plans/:id", tc.target, func(c *gin.Context) {
				id, ok := pathID(c, "id")
				if !ok {
					return
				}
				response.Success(c, http.StatusOK, gin.H{"id": id})
			})

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, map[string]any{"id": "9007199254740993"}, body.Data)
			} else {
				assert.Equal(t, response.ErrInvalidID, body.Error.Code)
			}
		})
	}
}
