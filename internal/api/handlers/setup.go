package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hamzaz9912/eliedu/internal/service"
	"go.uber.org/zap"
)

// SetupHandler handles first-run setup
type SetupHandler struct {
	users  AdminService
	logger *zap.Logger
}

// NewSetupHandler creates a new setup handler
func NewSetupHandler(users AdminService, logger *zap.Logger) *SetupHandler {
	return &SetupHandler{
		users:  users,
		logger: logger,
	}
}

// GetStatus reports whether an admin account exists yet
// @Router /api/setup/status [get]
func (h *SetupHandler) GetStatus(c *gin.Context) {
	isComplete, err := h.users.IsSetupComplete(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"setupComplete": isComplete,
	})
}

// SetupRequest represents the initial admin account
type SetupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"max=100"`
	Role     string `json:"role" binding:"omitempty,oneof=admin super_admin"`
}

// PerformSetup creates the first admin, a super admin by default
// @Router /api/setup/admin [post]
func (h *SetupHandler) PerformSetup(c *gin.Context) {
	var req SetupRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.users.PerformInitialSetup(c.Request.Context(), &service.CreateAdminRequest{
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

	h.logger.Info("Initial setup completed", zap.String("username", result.User.Username))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Initial admin user created successfully",
		"token":   result.Token,
		"user":    result.User,
	})
}
