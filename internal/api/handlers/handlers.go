// Package handlers provides the HTTP request handlers of the institute API.
// Handlers bind and validate JSON bodies, call exactly one service operation
// and shape the JSON response; they keep no state between requests.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/hamzaz9912/eliedu/internal/service"
	"github.com/hamzaz9912/eliedu/internal/storage"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.uber.org/zap"
)

// AdminService is the admin account surface used by the auth and setup handlers
type AdminService interface {
	CreateAdmin(ctx context.Context, req *service.CreateAdminRequest) (*models.AdminUser, error)
	CreateAdminAs(ctx context.Context, callerRole string, req *service.CreateAdminRequest) (*models.AdminUser, error)
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	IsSetupComplete(ctx context.Context) (bool, error)
	PerformInitialSetup(ctx context.Context, req *service.CreateAdminRequest) (*service.LoginResult, error)
	ListAdmins(ctx context.Context) ([]*models.AdminUser, error)
}

// RegistrationService is the registration surface used by RegistrationHandler
type RegistrationService interface {
	Create(ctx context.Context, reg *models.CourseRegistration) (*models.CourseRegistration, error)
	List(ctx context.Context) ([]*models.CourseRegistration, error)
	Update(ctx context.Context, id string, update models.RegistrationUpdate) (*models.CourseRegistration, error)
	Document(ctx context.Context, id string) (string, error)
}

// StudentService is the certificate surface used by StudentHandler
type StudentService interface {
	Verify(ctx context.Context, idCardNumber string) (*models.StudentCertificate, error)
	Login(ctx context.Context, idCardNumber string) (*service.StudentLoginResult, error)
	Profile(ctx context.Context, studentID string) (*models.StudentCertificate, error)
	List(ctx context.Context) ([]*models.StudentCertificate, error)
	Issue(ctx context.Context, req *service.IssueRequest) (*models.StudentCertificate, error)
	QRCode(ctx context.Context, idCardNumber string) ([]byte, error)
}

// ContactService is the contact form surface used by ContactHandler
type ContactService interface {
	Submit(ctx context.Context, form *models.ContactSubmission) error
}

// FieldError is one entry of a validation failure response
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// bindJSON binds the request body into req and answers 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": details})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
	return false
}

// fieldPath drops the top-level struct name, e.g. "req.courses[0].level" -> "courses[0].level"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if isList {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// errorStatus maps service and storage errors to a status and public message.
// Unknown errors map to 500.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, storage.ErrDuplicateUsername):
		return http.StatusConflict, "Username already exists"
	case errors.Is(err, storage.ErrDuplicateEmail):
		return http.StatusConflict, "Email already exists"
	case errors.Is(err, storage.ErrDuplicateIDCard):
		return http.StatusConflict, "ID card number already exists"
	case errors.Is(err, storage.ErrInvalidTransition):
		return http.StatusConflict, "Registration has already been reviewed"
	case errors.Is(err, storage.ErrInvalidStatus):
		return http.StatusBadRequest, "Invalid registration status"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, service.ErrSetupComplete):
		return http.StatusConflict, "Setup already completed"
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 8 characters and contain a letter and a digit"
	case errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest, "Invalid role"
	case errors.Is(err, service.ErrForbiddenRole):
		return http.StatusForbidden, "insufficient permissions"
	case errors.Is(err, service.ErrNoDocument):
		return http.StatusNotFound, "No ID document on file"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// respondError writes the mapped error response. notFound, when set, replaces
// the generic message for storage.ErrNotFound.
func respondError(c *gin.Context, logger *zap.Logger, err error, notFound string) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	if notFound != "" && errors.Is(err, storage.ErrNotFound) {
		msg = notFound
	}
	c.JSON(status, gin.H{"error": msg})
}
