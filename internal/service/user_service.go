// Package service implements the business rules of the institute back office:
// admin accounts and login, first-run setup, course registrations and their
// review, student certificates and the contact form. Services sit between the
// HTTP handlers and the storage backends.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hamzaz9912/eliedu/internal/auth"
	"github.com/hamzaz9912/eliedu/internal/storage"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials is returned when a username/password pair does not match
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSetupComplete is returned when initial setup runs after admins exist
	ErrSetupComplete = errors.New("setup already completed")
	// ErrWeakPassword is returned when a new admin password fails the strength rules
	ErrWeakPassword = errors.New("weak password")
	// ErrInvalidRole is returned for roles other than admin and super_admin
	ErrInvalidRole = errors.New("invalid role")
	// ErrForbiddenRole is returned when the caller may not grant the requested role
	ErrForbiddenRole = errors.New("insufficient permissions to grant role")
)

// UserService handles admin user operations
type UserService struct {
	store  storage.Store
	tokens *auth.TokenManager
	logger *zap.Logger
	now    func() time.Time

	setupMu sync.Mutex
}

// NewUserService creates a new user service
func NewUserService(store storage.Store, tokens *auth.TokenManager, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// CreateAdminRequest represents a request to create an admin user
type CreateAdminRequest struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     string
}

// LoginResult is a signed token together with the account it belongs to
type LoginResult struct {
	Token string
	User  *models.AdminUser
}

// CreateAdmin creates a new admin user. Role defaults to admin and name to the username.
func (s *UserService) CreateAdmin(ctx context.Context, req *CreateAdminRequest) (*models.AdminUser, error) {
	role := req.Role
	if role == "" {
		role = models.RoleAdmin
	}
	if role != models.RoleAdmin && role != models.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}

	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	username := strings.TrimSpace(req.Username)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = username
	}

	user := &models.AdminUser{
		Username:     username,
		Name:         name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := s.store.CreateAdminUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.Info("Admin user created",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", user.Role),
	)

	return user, nil
}

// CreateAdminAs creates an admin on behalf of an authenticated admin. Only a
// super admin may grant the super_admin role.
func (s *UserService) CreateAdminAs(ctx context.Context, callerRole string, req *CreateAdminRequest) (*models.AdminUser, error) {
	if req.Role == models.RoleSuperAdmin && callerRole != auth.RoleSuperAdmin {
		return nil, ErrForbiddenRole
	}
	return s.CreateAdmin(ctx, req)
}

// Login authenticates an admin and returns a signed token
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.store.GetAdminUser(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.AdminToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	at := s.now().UTC()
	if err := s.store.TouchAdminLogin(ctx, user.ID, at); err != nil {
		s.logger.Warn("Failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &at
	}

	return &LoginResult{Token: token, User: user}, nil
}

// IsSetupComplete reports whether at least one admin exists
func (s *UserService) IsSetupComplete(ctx context.Context) (bool, error) {
	users, err := s.store.GetAllAdminUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list admin users: %w", err)
	}
	return len(users) > 0, nil
}

// PerformInitialSetup creates the first admin, a super admin unless another
// role is requested, and signs them in.
func (s *UserService) PerformInitialSetup(ctx context.Context, req *CreateAdminRequest) (*LoginResult, error) {
	s.setupMu.Lock()
	defer s.setupMu.Unlock()

	isComplete, err := s.IsSetupComplete(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check setup status: %w", err)
	}
	if isComplete {
		return nil, ErrSetupComplete
	}

	setup := *req
	if setup.Role == "" {
		setup.Role = models.RoleSuperAdmin
	}

	user, err := s.CreateAdmin(ctx, &setup)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.AdminToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

// ListAdmins returns every admin user, newest first
func (s *UserService) ListAdmins(ctx context.Context) ([]*models.AdminUser, error) {
	return s.store.GetAllAdminUsers(ctx)
}
