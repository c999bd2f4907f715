package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/hamzaz9912/eliedu/internal/courses"
	"github.com/hamzaz9912/eliedu/internal/service"
	"github.com/hamzaz9912/eliedu/internal/storage"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleStudent() *models.StudentCertificate {
	return &models.StudentCertificate{
		ID:           "s1",
		StudentName:  "Ahmed Al Mahmoud",
		IDCardNumber: "STU2024001",
		Email:        "ahmed@example.com",
		Courses: []models.CourseCertificate{
			{Language: "English", Level: "B2", CertificateIssueDate: "2024-01-15", CertificateValidUntil: "2027-01-15"},
		},
	}
}

func TestStudentHandler_Verify(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockService := new(MockStudentService)
		mockService.On("Verify", mock.Anything, "stu2024001").Return(sampleStudent(), nil)

		router := setupTestRouter()
		router.GET("/api/verify/:idCardNumber", NewStudentHandler(mockService, zap.NewNop()).Verify)

		w := performJSON(router, "GET", "/api/verify/stu2024001", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "STU2024001", decodeBody(t, w)["idCardNumber"])
	})

	t.Run("Unknown", func(t *testing.T) {
		mockService := new(MockStudentService)
		mockService.On("Verify", mock.Anything, "UNKNOWN123").Return(nil, storage.ErrNotFound)

		router := setupTestRouter()
		router.GET("/api/verify/:idCardNumber", NewStudentHandler(mockService, zap.NewNop()).Verify)

		w := performJSON(router, "GET", "/api/verify/UNKNOWN123", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Student record not found"}`, w.Body.String())
	})
}

func TestStudentHandler_QRCode(t *testing.T) {
	mockService := new(MockStudentService)
	mockService.On("QRCode", mock.Anything, "stu2024001").Return([]byte("\x89PNG"), nil)
	mockService.On("QRCode", mock.Anything, "missing").Return(nil, storage.ErrNotFound)

	router := setupTestRouter()
	router.GET("/api/verify/:idCardNumber/qrcode", NewStudentHandler(mockService, zap.NewNop()).QRCode)

	w := performJSON(router, "GET", "/api/verify/stu2024001/qrcode", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "inline; filename=STU2024001-qrcode.png", w.Header().Get("Content-Disposition"))

	w = performJSON(router, "GET", "/api/verify/missing/qrcode", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentHandler_LoginAndProfile(t *testing.T) {
	mockService := new(MockStudentService)
	mockService.On("Login", mock.Anything, "STU2024001").Return(&service.StudentLoginResult{Token: "student-jwt", Student: sampleStudent()}, nil)
	mockService.On("Login", mock.Anything, "NOPE").Return(nil, storage.ErrNotFound)
	mockService.On("Profile", mock.Anything, "s1").Return(sampleStudent(), nil)

	handler := NewStudentHandler(mockService, zap.NewNop())
	router := setupTestRouter()
	router.POST("/api/user/login", handler.Login)
	router.GET("/api/user/profile", withClaims("s1", "STU2024001", "student"), handler.Profile)
	router.GET("/api/user/verify", withClaims("s1", "STU2024001", "student"), handler.VerifyToken)

	t.Run("Login", func(t *testing.T) {
		w := performJSON(router, "POST", "/api/user/login", StudentLoginRequest{IDCardNumber: "STU2024001"})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody(t, w)
		assert.Equal(t, "student-jwt", resp["token"])
		user := resp["user"].(map[string]interface{})
		assert.Equal(t, "Ahmed Al Mahmoud", user["studentName"])
		assert.NotContains(t, user, "email")
	})

	t.Run("Login unknown", func(t *testing.T) {
		w := performJSON(router, "POST", "/api/user/login", StudentLoginRequest{IDCardNumber: "NOPE"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Student record not found"}`, w.Body.String())
	})

	t.Run("Login without ID card", func(t *testing.T) {
		w := performJSON(router, "POST", "/api/user/login", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"idCardNumber"`)
	})

	t.Run("Profile", func(t *testing.T) {
		w := performJSON(router, "GET", "/api/user/profile", nil)
		require.Equal(t, http.StatusOK, w.Code)
		student := decodeBody(t, w)["student"].(map[string]interface{})
		assert.Equal(t, "s1", student["id"])
	})

	t.Run("Verify token", func(t *testing.T) {
		w := performJSON(router, "GET", "/api/user/verify", nil)
		assert.JSONEq(t, `{"success":true,"valid":true,"studentId":"s1"}`, w.Body.String())
	})
}

func TestStudentHandler_IssueCertificate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockStudentService)
		mockService.On("Issue", mock.Anything, mock.MatchedBy(func(req *service.IssueRequest) bool {
			return req.IDCardNumber == "stu2026100" &&
				len(req.Courses) == 1 &&
				req.Courses[0].Scores != nil && req.Courses[0].Scores.Overall == 88
		})).Return(sampleStudent(), nil)

		router := setupTestRouter()
		router.POST("/api/admin/students", NewStudentHandler(mockService, zap.NewNop()).IssueCertificate)

		w := performJSON(router, "POST", "/api/admin/students", map[string]interface{}{
			"studentName":  "Omar Khalid",
			"email":        "omar@example.com",
			"idCardNumber": "stu2026100",
			"courses": []map[string]interface{}{
				{"language": "French", "level": "b1", "scores": map[string]float64{"overall": 88}},
			},
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Student certificate issued successfully", decodeBody(t, w)["message"])
		mockService.AssertExpectations(t)
	})

	t.Run("Nested validation", func(t *testing.T) {
		router := setupTestRouter()
		router.POST("/api/admin/students", NewStudentHandler(new(MockStudentService), zap.NewNop()).IssueCertificate)

		w := performJSON(router, "POST", "/api/admin/students", map[string]interface{}{
			"studentName":  "Omar Khalid",
			"email":        "omar@example.com",
			"idCardNumber": "stu2026100",
			"courses":      []map[string]interface{}{{"language": "French", "level": "Z9"}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"courses[0].level"`)
	})

	t.Run("List", func(t *testing.T) {
		mockService := new(MockStudentService)
		mockService.On("List", mock.Anything).Return([]*models.StudentCertificate{sampleStudent()}, nil)

		router := setupTestRouter()
		router.GET("/api/admin/students", NewStudentHandler(mockService, zap.NewNop()).ListStudents)

		w := performJSON(router, "GET", "/api/admin/students", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody(t, w)["students"], 1)
	})
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "37301-1289468-7", sanitizeFilename("37301-1289468-7"))
	assert.Equal(t, "a_b_c", sanitizeFilename("a/b;c"))
	assert.Equal(t, "certificate", sanitizeFilename("..."))
}

func TestContactHandler_Submit(t *testing.T) {
	mockService := new(MockContactService)
	mockService.On("Submit", mock.Anything, mock.MatchedBy(func(f *models.ContactSubmission) bool {
		return f.Name == "Lina" && f.Email == "lina@example.com"
	})).Return(nil)

	router := setupTestRouter()
	router.POST("/api/contact", NewContactHandler(mockService, zap.NewNop()).Submit)

	w := performJSON(router, "POST", "/api/contact", ContactRequest{
		Name: " Lina ", Email: "lina@example.com", Phone: "0501234567", Message: "Do you offer evening classes?",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Contact form submitted successfully"}`, w.Body.String())

	w = performJSON(router, "POST", "/api/contact", ContactRequest{Name: "Lina", Email: "lina@example.com", Phone: "050", Message: "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decodeBody(t, w)["details"], 2)
	mockService.AssertNumberOfCalls(t, "Submit", 1)
}

type fakeHealth struct{ err error }

func (f fakeHealth) Kind() string { return "memory" }

func (f fakeHealth) Ping(ctx context.Context) error { return f.err }

func TestSiteHandler(t *testing.T) {
	router := setupTestRouter()
	handler := NewSiteHandler(fakeHealth{}, courses.Default(), zap.NewNop())
	router.GET("/api/health", handler.Health)
	router.GET("/api/courses", handler.Courses)

	w := performJSON(router, "GET", "/api/health", nil)
	assert.JSONEq(t, `{"status":"ok","storage":"memory"}`, w.Body.String())

	w = performJSON(router, "GET", "/api/courses", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"german-b2"`)

	down := setupTestRouter()
	down.GET("/api/health", NewSiteHandler(fakeHealth{err: errors.New("timeout")}, courses.Default(), zap.NewNop()).Health)
	w = performJSON(down, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
