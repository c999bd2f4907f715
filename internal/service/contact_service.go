package service

import (
	"context"
	"fmt"

	"github.com/hamzaz9912/eliedu/internal/storage"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.uber.org/zap"
)

// ContactService stores contact form submissions
type ContactService struct {
	store  storage.Store
	logger *zap.Logger
}

// NewContactService creates a new contact service
func NewContactService(store storage.Store, logger *zap.Logger) *ContactService {
	return &ContactService{store: store, logger: logger}
}

// Submit stores a contact form submission
func (s *ContactService) Submit(ctx context.Context, form *models.ContactSubmission) error {
	if err := s.store.SubmitContactForm(ctx, form); err != nil {
		return fmt.Errorf("failed to submit contact form: %w", err)
	}
	s.logger.Info("Contact form submitted", zap.String("contact_id", form.ID))
	return nil
}
