package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hamzaz9912/eliedu/internal/crypto"
	"github.com/hamzaz9912/eliedu/internal/notify"
	"github.com/hamzaz9912/eliedu/internal/storage"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.uber.org/zap"
)

// ErrNoDocument is returned when a registration was submitted without an ID document
var ErrNoDocument = errors.New("registration has no id document")

// RegistrationService handles course registrations and their review
type RegistrationService struct {
	store    storage.Store
	sealer   *crypto.DocumentSealer
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(store storage.Store, sealer *crypto.DocumentSealer, notifier notify.Notifier, logger *zap.Logger) *RegistrationService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &RegistrationService{
		store:    store,
		sealer:   sealer,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Create stores a new pending registration. An attached ID document is sealed
// with the registration id before it reaches storage.
func (s *RegistrationService) Create(ctx context.Context, reg *models.CourseRegistration) (*models.CourseRegistration, error) {
	reg.ID = storage.NewRegistrationID(s.now())

	if reg.IDDocument != "" {
		sealed, err := s.sealer.Seal(reg.IDDocument, reg.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to seal id document: %w", err)
		}
		reg.IDDocument = sealed
	}

	if err := s.store.CreateRegistration(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	s.logger.Info("Registration submitted",
		zap.String("registration_id", reg.ID),
		zap.Strings("courses", reg.SelectedCourses),
	)

	if err := s.notifier.RegistrationReceived(ctx, reg); err != nil {
		s.logger.Error("Failed to send registration notification", zap.String("registration_id", reg.ID), zap.Error(err))
	}

	return reg.WithoutDocument(), nil
}

// List returns all registrations newest first, without ID documents
func (s *RegistrationService) List(ctx context.Context) ([]*models.CourseRegistration, error) {
	regs, err := s.store.GetAllRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.CourseRegistration, len(regs))
	for i, r := range regs {
		out[i] = r.WithoutDocument()
	}
	return out, nil
}

// Update applies an admin review. Verifying derives the student certificate in
// the store; verifying or rejecting notifies the applicant.
func (s *RegistrationService) Update(ctx context.Context, id string, update models.RegistrationUpdate) (*models.CourseRegistration, error) {
	reg, err := s.store.UpdateRegistration(ctx, id, update)
	if err != nil {
		return nil, err
	}

	if update.Status != nil {
		s.logger.Info("Registration reviewed",
			zap.String("registration_id", reg.ID),
			zap.String("status", string(reg.Status)),
			zap.String("certificate_id_card", reg.CertificateID),
		)
		if reg.Status.Terminal() {
			if err := s.notifier.RegistrationReviewed(ctx, reg); err != nil {
				s.logger.Error("Failed to send review notification", zap.String("registration_id", reg.ID), zap.Error(err))
			}
		}
	}

	return reg.WithoutDocument(), nil
}

// Document returns the unsealed ID document of a registration
func (s *RegistrationService) Document(ctx context.Context, id string) (string, error) {
	reg, err := s.store.GetRegistration(ctx, id)
	if err != nil {
		return "", err
	}
	if reg.IDDocument == "" {
		return "", ErrNoDocument
	}

	doc, err := s.sealer.Open(reg.IDDocument, reg.ID)
	if err != nil {
		return "", fmt.Errorf("failed to open id document: %w", err)
	}
	return doc, nil
}
