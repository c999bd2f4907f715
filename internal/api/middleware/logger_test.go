package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerMiddleware(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		target     string
		handler    gin.HandlerFunc
		wantStatus int64
		wantPath   string
		wantQuery  string
	}{
		{
			name:   "Successful request",
			method: http.MethodGet,
			target: "/api/courses",
			handler: func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"ok": true})
			},
			wantStatus: 200,
			wantPath:   "/api/courses",
		},
		{
			name:   "Query string is kept",
			method: http.MethodGet,
			target: "/api/courses?lang=de&level=B2",
			handler: func(c *gin.Context) {
				c.Status(http.StatusOK)
			},
			wantStatus: 200,
			wantPath:   "/api/courses",
			wantQuery:  "lang=de&level=B2",
		},
		{
			name:   "Error status",
			method: http.MethodPost,
			target: "/api/courses",
			handler: func(c *gin.Context) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			},
			wantStatus: 500,
			wantPath:   "/api/courses",
		},
		{
			name:       "Unknown route",
			method:     http.MethodGet,
			target:     "/api/unknown",
			wantStatus: 404,
			wantPath:   "/api/unknown",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.InfoLevel)

			router := setupTestRouter()
			router.Use(LoggerMiddleware(zap.New(core)))
			if tc.handler != nil {
				router.Handle(tc.method, "/api/courses", tc.handler)
			}

			req := httptest.NewRequest(tc.method, tc.target, nil)
			req.Header.Set("User-Agent", "eliedu-test")
			req.RemoteAddr = "192.168.1.100:12345"
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, "HTTP request", logs[0].Message)

			fields := logs[0].ContextMap()
			assert.Equal(t, tc.method, fields["method"])
			assert.Equal(t, tc.wantPath, fields["path"])
			assert.Equal(t, tc.wantQuery, fields["query"])
			assert.Equal(t, tc.wantStatus, fields["status"])
			assert.Equal(t, "192.168.1.100", fields["ip"])
			assert.Equal(t, "eliedu-test", fields["user_agent"])
			_, ok := fields["latency"].(time.Duration)
			assert.True(t, ok)
		})
	}

	t.Run("Handler errors are attached", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)

		router := setupTestRouter()
		router.Use(LoggerMiddleware(zap.New(core)))
		router.GET("/api/health", func(c *gin.Context) {
			_ = c.Error(errors.New("store unreachable"))
			c.Status(http.StatusServiceUnavailable)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].ContextMap()["errors"], "store unreachable")
	})
}
