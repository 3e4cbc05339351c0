package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/referrals/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(mw...)
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	engine.GET("/panic", func(c *gin.Context) { panic("boom") })
	return engine
}

func TestRequireAuth(t *testing.T) {
	auth := NewAuthMiddleware([]string{"secret-a", " ", "secret-b"}, logger.NewNopLogger())
	engine := newEngine(auth.RequireAuth())

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic secret-a", status: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "first token", header: "Bearer secret-a", status: http.StatusNoContent},
		{name: "second token", header: "bearer secret-b", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequireAuth_NoTokensRejectsEverything(t *testing.T) {
	auth := NewAuthMiddleware(nil, logger.NewNopLogger())
	engine := newEngine(auth.RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecovery(t *testing.T) {
	engine := newEngine(Recovery(logger.NewNopLogger()), Logger(logger.NewNopLogger()))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error occurred")
}
