package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamzaz9912/eliedu/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func protectedRouter(tokens *auth.TokenManager, role string) *gin.Engine {
	router := setupTestRouter()
	group := router.Group("/api", AuthMiddleware(tokens))
	if role != "" {
		group.Use(RequireRole(role))
	}
	group.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString(ContextUserID),
			"username": c.GetString(ContextUsername),
			"role":     c.GetString(ContextRole),
		})
	})
	return router
}

func doGet(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret-key-for-testing", "eliedu-test", time.Hour, time.Hour)
	router := protectedRouter(tokens, "")

	t.Run("Valid token allows access", func(t *testing.T) {
		token, err := tokens.AdminToken("user123", "testuser", auth.RoleAdmin)
		require.NoError(t, err)

		w := doGet(router, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"user123","username":"testuser","role":"admin"}`, w.Body.String())
	})

	t.Run("Missing header", func(t *testing.T) {
		w := doGet(router, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authentication required")
	})

	t.Run("Wrong scheme", func(t *testing.T) {
		w := doGet(router, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token format")
	})

	t.Run("Prototype style token is rejected", func(t *testing.T) {
		w := doGet(router, "Bearer admin_token_1_1700000000000")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token")
	})

	t.Run("Token signed with another secret", func(t *testing.T) {
		other := auth.NewTokenManager("another-secret", "eliedu-test", time.Hour, time.Hour)
		token, err := other.AdminToken("user123", "testuser", auth.RoleAdmin)
		require.NoError(t, err)

		w := doGet(router, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Expired token", func(t *testing.T) {
		expired := auth.NewTokenManager("test-secret-key-for-testing", "eliedu-test", -time.Minute, time.Hour)
		token, err := expired.AdminToken("user123", "testuser", auth.RoleAdmin)
		require.NoError(t, err)

		w := doGet(router, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret-key-for-testing", "eliedu-test", time.Hour, time.Hour)

	adminToken, err := tokens.AdminToken("a1", "admin", auth.RoleAdmin)
	require.NoError(t, err)
	superToken, err := tokens.AdminToken("s1", "root", auth.RoleSuperAdmin)
	require.NoError(t, err)
	studentToken, err := tokens.StudentToken("st1", "STU2024001")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		required string
		token    string
		want     int
	}{
		{"Admin on admin route", auth.RoleAdmin, adminToken, http.StatusOK},
		{"Super admin on admin route", auth.RoleAdmin, superToken, http.StatusOK},
		{"Student on admin route", auth.RoleAdmin, studentToken, http.StatusForbidden},
		{"Admin on super admin route", auth.RoleSuperAdmin, adminToken, http.StatusForbidden},
		{"Student on student route", auth.RoleStudent, studentToken, http.StatusOK},
		{"Admin on student route", auth.RoleStudent, adminToken, http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doGet(protectedRouter(tokens, tc.required), "Bearer "+tc.token)
			assert.Equal(t, tc.want, w.Code)
		})
	}

	t.Run("No role in context", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/api/protected", RequireRole(auth.RoleAdmin), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		w := doGet(router, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
