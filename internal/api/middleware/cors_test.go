package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hamzaz9912/eliedu/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware(t *testing.T) {
	newRouter := func(cfg config.SecurityConfig) *gin.Engine {
		router := setupTestRouter()
		router.Use(CORSMiddleware(cfg))
		router.GET("/api/courses", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		return router
	}

	enabled := config.SecurityConfig{
		CORSEnabled: true,
		CORSOrigins: []string{"http://localhost:5173", "https://europelanguages.ae"},
	}

	t.Run("Preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/courses", nil)
		req.Header.Set("Origin", "https://europelanguages.ae")
		req.Header.Set("Access-Control-Request-Method", "PUT")
		w := httptest.NewRecorder()
		newRouter(enabled).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://europelanguages.ae", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	})

	t.Run("Disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		w := httptest.NewRecorder()
		newRouter(enabled).ServeHTTP(w, req)

		assert.NotEqual(t, "http://evil.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Disabled passes requests through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		w := httptest.NewRecorder()
		newRouter(config.SecurityConfig{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
