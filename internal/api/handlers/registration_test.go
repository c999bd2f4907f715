package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/hamzaz9912/eliedu/internal/service"
	"github.com/hamzaz9912/eliedu/internal/storage"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validRegistration() map[string]interface{} {
	return map[string]interface{}{
		"fullName":        "Jane Doe",
		"email":           "jane@x.com",
		"phone":           "5551234",
		"countryCode":     "+971",
		"address":         "10 Main St, City",
		"dateOfBirth":     "1995-01-01",
		"idType":          "passport",
		"idNumber":        "P1234567",
		"selectedCourses": []string{"German-B2 "},
		"status":          "verified",
	}
}

func TestRegistrationHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockRegistrationService)
		mockService.On("Create", mock.Anything, mock.MatchedBy(func(reg *models.CourseRegistration) bool {
			return reg.FullName == "Jane Doe" &&
				reg.Status == "" &&
				len(reg.SelectedCourses) == 1 && reg.SelectedCourses[0] == "german-b2"
		})).Return(&models.CourseRegistration{ID: "reg_1700000000000000000", Status: models.StatusPending}, nil)

		router := setupTestRouter()
		router.POST("/api/registrations", NewRegistrationHandler(mockService, zap.NewNop()).Create)

		w := performJSON(router, "POST", "/api/registrations", validRegistration())
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"message":"Registration submitted successfully","registrationId":"reg_1700000000000000000"}`, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("Validation details", func(t *testing.T) {
		body := validRegistration()
		body["fullName"] = "J"
		body["address"] = "short"
		body["idType"] = "drivers_license"
		body["dateOfBirth"] = "01/01/1995"
		body["selectedCourses"] = []string{}

		router := setupTestRouter()
		router.POST("/api/registrations", NewRegistrationHandler(new(MockRegistrationService), zap.NewNop()).Create)

		w := performJSON(router, "POST", "/api/registrations", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeBody(t, w)
		assert.Equal(t, "Validation failed", resp["error"])
		details := map[string]string{}
		for _, d := range resp["details"].([]interface{}) {
			entry := d.(map[string]interface{})
			details[entry["field"].(string)] = entry["message"].(string)
		}
		assert.Equal(t, map[string]string{
			"fullName":        "must be at least 2 characters",
			"address":         "must be at least 10 characters",
			"idType":          "must be one of: id_card, passport",
			"dateOfBirth":     "must be a date formatted YYYY-MM-DD",
			"selectedCourses": "must contain at least 1 item(s)",
		}, details)
	})

	t.Run("Store failure", func(t *testing.T) {
		mockService := new(MockRegistrationService)
		mockService.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("write failed"))

		router := setupTestRouter()
		router.POST("/api/registrations", NewRegistrationHandler(mockService, zap.NewNop()).Create)

		w := performJSON(router, "POST", "/api/registrations", validRegistration())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	})
}

func TestRegistrationHandler_Update(t *testing.T) {
	verified := models.StatusVerified

	t.Run("Verify", func(t *testing.T) {
		mockService := new(MockRegistrationService)
		mockService.On("Update", mock.Anything, "reg_1", models.RegistrationUpdate{Status: &verified}).
			Return(&models.CourseRegistration{ID: "reg_1", Status: verified, CertificateID: "STU202612345678"}, nil)

		router := setupTestRouter()
		router.PUT("/api/registrations/:id", NewRegistrationHandler(mockService, zap.NewNop()).Update)

		w := performJSON(router, "PUT", "/api/registrations/reg_1", map[string]string{"status": "verified"})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody(t, w)
		reg := resp["registration"].(map[string]interface{})
		assert.Equal(t, "verified", reg["status"])
		assert.Equal(t, "STU202612345678", reg["certificateIdCard"])
		mockService.AssertExpectations(t)
	})

	testCases := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{"Unknown registration", storage.ErrNotFound, http.StatusNotFound, "Registration not found"},
		{"Already reviewed", storage.ErrInvalidTransition, http.StatusConflict, "Registration has already been reviewed"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockRegistrationService)
			mockService.On("Update", mock.Anything, "reg_1", mock.Anything).Return(nil, tc.err)

			router := setupTestRouter()
			router.PUT("/api/registrations/:id", NewRegistrationHandler(mockService, zap.NewNop()).Update)

			w := performJSON(router, "PUT", "/api/registrations/reg_1", map[string]string{"status": "rejected"})
			assert.Equal(t, tc.want, w.Code)
			assert.Equal(t, tc.msg, decodeBody(t, w)["error"])
		})
	}

	t.Run("Unknown status", func(t *testing.T) {
		router := setupTestRouter()
		router.PUT("/api/registrations/:id", NewRegistrationHandler(new(MockRegistrationService), zap.NewNop()).Update)

		w := performJSON(router, "PUT", "/api/registrations/reg_1", map[string]string{"status": "archived"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "must be one of: pending, verified, rejected")
	})

	t.Run("Empty update", func(t *testing.T) {
		router := setupTestRouter()
		router.PUT("/api/registrations/:id", NewRegistrationHandler(new(MockRegistrationService), zap.NewNop()).Update)

		w := performJSON(router, "PUT", "/api/registrations/reg_1", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Nothing to update"}`, w.Body.String())
	})
}

func TestRegistrationHandler_Document(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockRegistrationService)
		mockService.On("Document", mock.Anything, "reg_1").Return("data:image/png;base64,AAAA", nil)

		router := setupTestRouter()
		router.GET("/api/registrations/:id/document", withClaims("u1", "first", "admin"), NewRegistrationHandler(mockService, zap.NewNop()).Document)

		w := performJSON(router, "GET", "/api/registrations/reg_1/document", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "data:image/png;base64,AAAA", decodeBody(t, w)["idDocument"])
	})

	t.Run("No document", func(t *testing.T) {
		mockService := new(MockRegistrationService)
		mockService.On("Document", mock.Anything, "reg_1").Return("", service.ErrNoDocument)

		router := setupTestRouter()
		router.GET("/api/registrations/:id/document", NewRegistrationHandler(mockService, zap.NewNop()).Document)

		w := performJSON(router, "GET", "/api/registrations/reg_1/document", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"No ID document on file"}`, w.Body.String())
	})
}
