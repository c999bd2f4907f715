package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hamzaz9912/eliedu/internal/service"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAdminService is a mock implementation of AdminService
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) CreateAdmin(ctx context.Context, req *service.CreateAdminRequest) (*models.AdminUser, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*models.AdminUser)
	return user, args.Error(1)
}

func (m *MockAdminService) CreateAdminAs(ctx context.Context, callerRole string, req *service.CreateAdminRequest) (*models.AdminUser, error) {
	args := m.Called(ctx, callerRole, req)
	user, _ := args.Get(0).(*models.AdminUser)
	return user, args.Error(1)
}

func (m *MockAdminService) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	args := m.Called(ctx, username, password)
	result, _ := args.Get(0).(*service.LoginResult)
	return result, args.Error(1)
}

func (m *MockAdminService) IsSetupComplete(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminService) PerformInitialSetup(ctx context.Context, req *service.CreateAdminRequest) (*service.LoginResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*service.LoginResult)
	return result, args.Error(1)
}

func (m *MockAdminService) ListAdmins(ctx context.Context) ([]*models.AdminUser, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*models.AdminUser)
	return users, args.Error(1)
}

// MockRegistrationService is a mock implementation of RegistrationService
type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) Create(ctx context.Context, reg *models.CourseRegistration) (*models.CourseRegistration, error) {
	args := m.Called(ctx, reg)
	out, _ := args.Get(0).(*models.CourseRegistration)
	return out, args.Error(1)
}

func (m *MockRegistrationService) List(ctx context.Context) ([]*models.CourseRegistration, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]*models.CourseRegistration)
	return out, args.Error(1)
}

func (m *MockRegistrationService) Update(ctx context.Context, id string, update models.RegistrationUpdate) (*models.CourseRegistration, error) {
	args := m.Called(ctx, id, update)
	out, _ := args.Get(0).(*models.CourseRegistration)
	return out, args.Error(1)
}

func (m *MockRegistrationService) Document(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

// MockStudentService is a mock implementation of StudentService
type MockStudentService struct {
	mock.Mock
}

func (m *MockStudentService) Verify(ctx context.Context, idCardNumber string) (*models.StudentCertificate, error) {
	args := m.Called(ctx, idCardNumber)
	out, _ := args.Get(0).(*models.StudentCertificate)
	return out, args.Error(1)
}

func (m *MockStudentService) Login(ctx context.Context, idCardNumber string) (*service.StudentLoginResult, error) {
	args := m.Called(ctx, idCardNumber)
	out, _ := args.Get(0).(*service.StudentLoginResult)
	return out, args.Error(1)
}

func (m *MockStudentService) Profile(ctx context.Context, studentID string) (*models.StudentCertificate, error) {
	args := m.Called(ctx, studentID)
	out, _ := args.Get(0).(*models.StudentCertificate)
	return out, args.Error(1)
}

func (m *MockStudentService) List(ctx context.Context) ([]*models.StudentCertificate, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]*models.StudentCertificate)
	return out, args.Error(1)
}

func (m *MockStudentService) Issue(ctx context.Context, req *service.IssueRequest) (*models.StudentCertificate, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*models.StudentCertificate)
	return out, args.Error(1)
}

func (m *MockStudentService) QRCode(ctx context.Context, idCardNumber string) ([]byte, error) {
	args := m.Called(ctx, idCardNumber)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

// MockContactService is a mock implementation of ContactService
type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Submit(ctx context.Context, form *models.ContactSubmission) error {
	return m.Called(ctx, form).Error(0)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// withClaims stands in for the auth middleware
func withClaims(userID, username, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("username", username)
		c.Set("role", role)
		c.Next()
	}
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
