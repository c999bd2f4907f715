package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hamzaz9912/eliedu/internal/api/middleware"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.uber.org/zap"
)

// RegistrationHandler handles course registrations
type RegistrationHandler struct {
	registrations RegistrationService
	logger        *zap.Logger
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrations RegistrationService, logger *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		registrations: registrations,
		logger:        logger,
	}
}

// CreateRegistrationRequest represents a course registration form
type CreateRegistrationRequest struct {
	FullName        string   `json:"fullName" binding:"required,min=2,max=100"`
	Email           string   `json:"email" binding:"required,email"`
	Phone           string   `json:"phone" binding:"required,min=7,max=20"`
	CountryCode     string   `json:"countryCode" binding:"required,max=5"`
	Address         string   `json:"address" binding:"required,min=10,max=300"`
	DateOfBirth     string   `json:"dateOfBirth" binding:"required,datetime=2006-01-02"`
	IDType          string   `json:"idType" binding:"required,oneof=id_card passport"`
	IDNumber        string   `json:"idNumber" binding:"required,min=5,max=50"`
	IDDocument      string   `json:"idDocument" binding:"max=8000000"`
	SelectedCourses []string `json:"selectedCourses" binding:"required,min=1,max=20,dive,required"`
}

// Create submits a registration for review
// @Router /api/registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req CreateRegistrationRequest
	if !bindJSON(c, &req) {
		return
	}

	selected := make([]string, len(req.SelectedCourses))
	for i, code := range req.SelectedCourses {
		selected[i] = strings.ToLower(strings.TrimSpace(code))
	}

	reg, err := h.registrations.Create(c.Request.Context(), &models.CourseRegistration{
		FullName:        strings.TrimSpace(req.FullName),
		Email:           req.Email,
		Phone:           req.Phone,
		CountryCode:     req.CountryCode,
		Address:         req.Address,
		DateOfBirth:     req.DateOfBirth,
		IDType:          req.IDType,
		IDNumber:        req.IDNumber,
		IDDocument:      req.IDDocument,
		SelectedCourses: selected,
	})
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Registration submitted successfully",
		"registrationId": reg.ID,
	})
}

// List returns all registrations, newest first
// @Router /api/registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	regs, err := h.registrations.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusOK, regs)
}

// UpdateRegistrationRequest represents an admin review
type UpdateRegistrationRequest struct {
	Status     *string `json:"status" binding:"omitempty,oneof=pending verified rejected"`
	AdminNotes *string `json:"adminNotes" binding:"omitempty,max=2000"`
}

// Update changes status and notes of a registration
// @Router /api/registrations/{id} [put]
func (h *RegistrationHandler) Update(c *gin.Context) {
	var req UpdateRegistrationRequest
	if !bindJSON(c, &req) {
		return
	}

	var update models.RegistrationUpdate
	if req.Status != nil {
		status := models.RegistrationStatus(*req.Status)
		update.Status = &status
	}
	update.AdminNotes = req.AdminNotes
	if update.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	reg, err := h.registrations.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		respondError(c, h.logger, err, "Registration not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Registration updated successfully",
		"registration": reg,
	})
}

// Document returns the uploaded ID document of a registration
// @Router /api/registrations/{id}/document [get]
func (h *RegistrationHandler) Document(c *gin.Context) {
	doc, err := h.registrations.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Registration not found")
		return
	}

	h.logger.Info("ID document viewed",
		zap.String("registration_id", c.Param("id")),
		zap.String("viewed_by", c.GetString(middleware.ContextUsername)),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"registrationId": c.Param("id"),
		"idDocument":     doc,
	})
}
