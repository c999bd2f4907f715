// Package storage is the persistence layer of the institute API. Store is the
// contract every backend honours; memory, SQL (SQLite and PostgreSQL) and
// MongoDB implementations live here side by side and are selected by
// configuration.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hamzaz9912/eliedu/internal/config"
	"github.com/hamzaz9912/eliedu/internal/courses"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername is returned when an admin username is taken
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail is returned when an admin email is taken
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrDuplicateIDCard is returned when an ID card number is taken
	ErrDuplicateIDCard = errors.New("id card number already exists")
	// ErrInvalidTransition is returned for status changes out of a terminal state
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidStatus is returned for unknown registration statuses
	ErrInvalidStatus = errors.New("invalid registration status")
)

// Store is implemented by every storage backend
type Store interface {
	// Kind names the backend, e.g. "memory" or "mongo"
	Kind() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	GetStudentByIDCard(ctx context.Context, idCardNumber string) (*models.StudentCertificate, error)
	GetStudentByID(ctx context.Context, id string) (*models.StudentCertificate, error)
	ListStudents(ctx context.Context) ([]*models.StudentCertificate, error)
	// IssueCertificate appends courses to the student holding the ID card,
	// creating the student when none exists.
	IssueCertificate(ctx context.Context, cert *models.StudentCertificate) (*models.StudentCertificate, error)

	SubmitContactForm(ctx context.Context, form *models.ContactSubmission) error

	CreateRegistration(ctx context.Context, reg *models.CourseRegistration) error
	GetRegistration(ctx context.Context, id string) (*models.CourseRegistration, error)
	// GetAllRegistrations returns registrations newest first
	GetAllRegistrations(ctx context.Context) ([]*models.CourseRegistration, error)
	// UpdateRegistration merges update into the registration. Moving a pending
	// registration to verified also writes the derived student certificate.
	UpdateRegistration(ctx context.Context, id string, update models.RegistrationUpdate) (*models.CourseRegistration, error)

	// GetAdminUser returns an active admin by username
	GetAdminUser(ctx context.Context, username string) (*models.AdminUser, error)
	GetAllAdminUsers(ctx context.Context) ([]*models.AdminUser, error)
	CreateAdminUser(ctx context.Context, user *models.AdminUser) error
	TouchAdminLogin(ctx context.Context, id string, at time.Time) error
}

// Options configures a backend
type Options struct {
	Catalog        *courses.Catalog
	SeedSampleData bool
	Logger         *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Catalog == nil {
		o.Catalog = courses.Default()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// New creates the backend selected by cfg.Database.Type. The backend is not
// connected yet; callers invoke Connect or rely on lazy connection.
func New(cfg *config.Config, catalog *courses.Catalog, logger *zap.Logger) (Store, error) {
	opts := Options{
		Catalog:        catalog,
		SeedSampleData: cfg.Database.SeedSampleData,
		Logger:         logger,
	}

	switch cfg.Database.Type {
	case "memory":
		return NewMemoryStore(opts), nil
	case "sqlite", "postgres":
		return NewSQLStore(cfg, opts)
	case "mongo":
		return NewMongoStore(cfg.Database.Mongo, opts)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}
