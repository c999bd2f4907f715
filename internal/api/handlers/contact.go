package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.uber.org/zap"
)

// ContactHandler handles the contact form
type ContactHandler struct {
	contacts ContactService
	logger   *zap.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contacts ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contacts: contacts,
		logger:   logger,
	}
}

// ContactRequest represents a contact form submission
type ContactRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"required,min=7,max=20"`
	Message string `json:"message" binding:"required,min=10,max=5000"`
}

// Submit stores a contact form submission
// @Router /api/contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req ContactRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.contacts.Submit(c.Request.Context(), &models.ContactSubmission{
		Name:    strings.TrimSpace(req.Name),
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Contact form submitted successfully",
	})
}
