package storage

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hamzaz9912/eliedu/internal/courses"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
)

// DateLayout formats certificate issue and expiry dates
const DateLayout = "2006-01-02"

// CertificateValidityYears is how long a derived certificate stays valid
const CertificateValidityYears = 3

var (
	regIDMu   sync.Mutex
	lastRegID int64
)

// NewRegistrationID returns "reg_<unix nanoseconds>", strictly increasing within the process
func NewRegistrationID(now time.Time) string {
	regIDMu.Lock()
	defer regIDMu.Unlock()

	n := now.UnixNano()
	if n <= lastRegID {
		n = lastRegID + 1
	}
	lastRegID = n
	return "reg_" + strconv.FormatInt(n, 10)
}

// NewStudentIDCard returns a fresh "STU<digits>" ID card number: the year
// followed by eight random digits.
func NewStudentIDCard(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate id card number: %w", err)
	}
	return fmt.Sprintf("STU%d%08d", now.Year(), n.Int64()), nil
}

// NormalizeIDCard upper-cases and trims an ID card number
func NormalizeIDCard(idCardNumber string) string {
	return strings.ToUpper(strings.TrimSpace(idCardNumber))
}

// NormalizeEmail lower-cases and trims an e-mail address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckTransition validates a status change. Verified and rejected are
// terminal; any status written to them is refused.
func CheckTransition(from, to models.RegistrationStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: registration is already %s", ErrInvalidTransition, from)
	}
	return nil
}

// planUpdate validates update against reg and reports whether it verifies the registration
func planUpdate(reg *models.CourseRegistration, update models.RegistrationUpdate) (verifies bool, err error) {
	if update.Status == nil {
		return false, nil
	}
	if err := CheckTransition(reg.Status, *update.Status); err != nil {
		return false, err
	}
	return *update.Status == models.StatusVerified, nil
}

// applyUpdate merges the non-nil fields of update into reg
func applyUpdate(reg *models.CourseRegistration, update models.RegistrationUpdate, now time.Time) {
	if update.Status != nil {
		reg.Status = *update.Status
		if reg.Status == models.StatusVerified {
			verifiedAt := now
			reg.VerifiedAt = &verifiedAt
		}
	}
	if update.AdminNotes != nil {
		reg.AdminNotes = *update.AdminNotes
	}
	reg.UpdatedAt = now
}

// DeriveCertificate builds the student certificate issued when reg is verified.
// Every selected course is resolved through the catalog; issue date is today
// and validity runs CertificateValidityYears from it.
func DeriveCertificate(reg *models.CourseRegistration, catalog *courses.Catalog, idCardNumber string, now time.Time) *models.StudentCertificate {
	issued := now.Format(DateLayout)
	validUntil := now.AddDate(CertificateValidityYears, 0, 0).Format(DateLayout)

	entries := make([]models.CourseCertificate, 0, len(reg.SelectedCourses))
	for _, code := range reg.SelectedCourses {
		course := catalog.Resolve(code)
		entries = append(entries, models.CourseCertificate{
			Language:              course.Language,
			Level:                 course.Level,
			CertificateIssueDate:  issued,
			CertificateValidUntil: validUntil,
		})
	}

	return &models.StudentCertificate{
		StudentName:  reg.FullName,
		IDCardNumber: NormalizeIDCard(idCardNumber),
		Email:        reg.Email,
		Phone:        reg.Phone,
		DateOfBirth:  reg.DateOfBirth,
		Courses:      entries,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// mergeIssued folds an issued certificate into an existing student record:
// courses are appended and supplied contact fields replace the stored ones.
func mergeIssued(existing, issued *models.StudentCertificate, now time.Time) {
	existing.Courses = append(existing.Courses, issued.Courses...)
	if issued.StudentName != "" {
		existing.StudentName = issued.StudentName
	}
	if issued.Email != "" {
		existing.Email = issued.Email
	}
	if issued.Phone != "" {
		existing.Phone = issued.Phone
	}
	if issued.DateOfBirth != "" {
		existing.DateOfBirth = issued.DateOfBirth
	}
	existing.UpdatedAt = now
}

// replaceDerived overwrites an existing record with a derived certificate, keeping identity and creation time
func replaceDerived(existing, derived *models.StudentCertificate, now time.Time) {
	existing.StudentName = derived.StudentName
	existing.Email = derived.Email
	existing.Phone = derived.Phone
	existing.DateOfBirth = derived.DateOfBirth
	existing.Courses = derived.Courses
	existing.UpdatedAt = now
}
