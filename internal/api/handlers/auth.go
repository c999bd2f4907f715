package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hamzaz9912/eliedu/internal/api/middleware"
	"github.com/hamzaz9912/eliedu/internal/service"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.uber.org/zap"
)

// AuthHandler handles admin authentication and admin accounts
type AuthHandler struct {
	users  AdminService
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users AdminService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		logger: logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an admin
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("Login failed", zap.String("username", req.Username), zap.Error(err))
		respondError(c, h.logger, err, "")
		return
	}

	h.logger.Info("Admin logged in", zap.String("username", result.User.Username))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}

// Verify confirms the bearer token belongs to an admin
// @Router /api/auth/verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"valid":   true,
		"user": gin.H{
			"id":       c.GetString(middleware.ContextUserID),
			"username": c.GetString(middleware.ContextUsername),
			"role":     c.GetString(middleware.ContextRole),
		},
	})
}

// RegisterRequest represents a self-service admin registration
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"max=100"`
}

// Register creates an admin account with the admin role
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.CreateAdmin(c.Request.Context(), &service.CreateAdminRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Admin user created successfully",
		"user":    user,
	})
}

// ListUsers returns every admin account
// @Router /api/auth/users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListAdmins(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusOK, users)
}

// CreateUserRequest represents an admin account created by another admin
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,max=100"`
	Role     string `json:"role" binding:"omitempty,oneof=admin super_admin"`
}

// CreateUser creates an admin account on behalf of the signed-in admin
// @Router /api/auth/users [post]
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.CreateAdminAs(c.Request.Context(), c.GetString(middleware.ContextRole), &service.CreateAdminRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	h.logger.Info("Admin user created by admin",
		zap.String("created_by", c.GetString(middleware.ContextUsername)),
		zap.String("username", user.Username),
	)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Admin user created successfully",
		"user":    user,
	})
}
