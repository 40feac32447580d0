package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, perPage, total int
		wantPages            int
	}{
		{1, 20, 0, 0},
		{1, 20, 20, 1},
		{2, 20, 21, 2},
		{1, 0, 5, 0},
	}
	for _, tt := range tests {
		p := NewPagination(tt.page, tt.perPage, tt.total)
		assert.Equal(t, tt.wantPages, p.TotalPages, "%d items / %d per page", tt.total, tt.perPage)
		assert.Equal(t, tt.total, p.TotalItems)
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "client id kept", header: "abc-123", keep: true},
		{name: "missing", header: ""},
		{name: "too long", header: strings.Repeat("a", 65)},
		{name: "control characters", header: "abc\x01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestIDMiddleware())
			r.GET("/", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrNotFound) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, w.Header().Get("X-Request-ID"), body.Metadata.RequestID)
			if tt.keep {
				assert.Equal(t, tt.header, body.Metadata.RequestID)
			} else {
				assert.NotEqual(t, tt.header, body.Metadata.RequestID)
				assert.Len(t, body.Metadata.RequestID, 36)
			}
			require.NotNil(t, body.Error)
			assert.Equal(t, ErrNotFound, body.Error.Code)
			assert.Equal(t, GetMessage(ErrNotFound), body.Error.Message)
		})
	}
}
