package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hamzaz9912/eliedu/internal/crypto"
	"github.com/hamzaz9912/eliedu/internal/storage"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) RegistrationReceived(ctx context.Context, reg *models.CourseRegistration) error {
	return m.Called(ctx, reg).Error(0)
}

func (m *mockNotifier) RegistrationReviewed(ctx context.Context, reg *models.CourseRegistration) error {
	return m.Called(ctx, reg).Error(0)
}

func testSealer(t *testing.T) *crypto.DocumentSealer {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sealer, err := crypto.NewDocumentSealer(key)
	require.NoError(t, err)
	return sealer
}

func janeDoe() *models.CourseRegistration {
	return &models.CourseRegistration{
		FullName:        "Jane Doe",
		Email:           "jane@x.com",
		Phone:           "5551234",
		CountryCode:     "+971",
		Address:         "10 Main St, City",
		DateOfBirth:     "1995-01-01",
		IDType:          models.IDTypePassport,
		IDNumber:        "P1234567",
		SelectedCourses: []string{"german-b2"},
		Status:          models.StatusVerified,
	}
}

func TestRegistrationService_Create(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	notifier := new(mockNotifier)
	notifier.On("RegistrationReceived", ctx, mock.Anything).Return(nil)
	registrationService := NewRegistrationService(store, testSealer(t), notifier, zap.NewNop())

	t.Run("Status is forced to pending", func(t *testing.T) {
		reg, err := registrationService.Create(ctx, janeDoe())
		require.NoError(t, err)
		assert.Regexp(t, `^reg_\d+$`, reg.ID)
		assert.Equal(t, models.StatusPending, reg.Status)
		assert.False(t, reg.HasIDDocument)
	})

	t.Run("ID document is sealed at rest", func(t *testing.T) {
		in := janeDoe()
		in.IDDocument = "data:image/png;base64,AAAA"
		reg, err := registrationService.Create(ctx, in)
		require.NoError(t, err)
		assert.True(t, reg.HasIDDocument)
		assert.Empty(t, reg.IDDocument)

		stored, err := store.GetRegistration(ctx, reg.ID)
		require.NoError(t, err)
		assert.True(t, crypto.IsSealed(stored.IDDocument))
		assert.NotContains(t, stored.IDDocument, "AAAA")

		doc, err := registrationService.Document(ctx, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,AAAA", doc)
	})

	t.Run("Document of registration without upload", func(t *testing.T) {
		reg, err := registrationService.Create(ctx, janeDoe())
		require.NoError(t, err)
		_, err = registrationService.Document(ctx, reg.ID)
		assert.ErrorIs(t, err, ErrNoDocument)

		_, err = registrationService.Document(ctx, "reg_0")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("List hides documents", func(t *testing.T) {
		regs, err := registrationService.List(ctx)
		require.NoError(t, err)
		require.Len(t, regs, 3)
		for _, r := range regs {
			assert.Empty(t, r.IDDocument)
		}
	})

	notifier.AssertNumberOfCalls(t, "RegistrationReceived", 3)
}

func TestRegistrationService_Update(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	notifier := new(mockNotifier)
	notifier.On("RegistrationReceived", ctx, mock.Anything).Return(errors.New("mail down"))
	registrationService := NewRegistrationService(store, testSealer(t), notifier, zap.NewNop())

	// a failed notification never fails the submission
	reg, err := registrationService.Create(ctx, janeDoe())
	require.NoError(t, err)

	t.Run("Notes only does not notify", func(t *testing.T) {
		notes := "called applicant"
		updated, err := registrationService.Update(ctx, reg.ID, models.RegistrationUpdate{AdminNotes: &notes})
		require.NoError(t, err)
		assert.Equal(t, "called applicant", updated.AdminNotes)
		notifier.AssertNotCalled(t, "RegistrationReviewed", mock.Anything, mock.Anything)
	})

	t.Run("Verify derives certificate and notifies", func(t *testing.T) {
		notifier.On("RegistrationReviewed", ctx, mock.MatchedBy(func(r *models.CourseRegistration) bool {
			return r.Status == models.StatusVerified && r.CertificateID != ""
		})).Return(nil).Once()

		verified := models.StatusVerified
		updated, err := registrationService.Update(ctx, reg.ID, models.RegistrationUpdate{Status: &verified})
		require.NoError(t, err)
		assert.Equal(t, models.StatusVerified, updated.Status)
		assert.Regexp(t, `^STU\d+$`, updated.CertificateID)

		cert, err := store.GetStudentByIDCard(ctx, updated.CertificateID)
		require.NoError(t, err)
		require.Len(t, cert.Courses, 1)
		assert.Equal(t, "German", cert.Courses[0].Language)
		assert.Equal(t, "B2", cert.Courses[0].Level)
		notifier.AssertExpectations(t)
	})

	t.Run("Second review is refused", func(t *testing.T) {
		rejected := models.StatusRejected
		_, err := registrationService.Update(ctx, reg.ID, models.RegistrationUpdate{Status: &rejected})
		assert.ErrorIs(t, err, storage.ErrInvalidTransition)
	})
}
