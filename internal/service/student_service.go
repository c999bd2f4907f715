package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hamzaz9912/eliedu/internal/auth"
	"github.com/hamzaz9912/eliedu/internal/config"
	"github.com/hamzaz9912/eliedu/internal/storage"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// StudentService handles student certificates: lookup, student sign-in,
// direct issuance and verification QR codes.
type StudentService struct {
	store  storage.Store
	tokens *auth.TokenManager
	site   config.SiteConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewStudentService creates a new student service
func NewStudentService(store storage.Store, tokens *auth.TokenManager, site config.SiteConfig, logger *zap.Logger) *StudentService {
	return &StudentService{
		store:  store,
		tokens: tokens,
		site:   site,
		logger: logger,
		now:    time.Now,
	}
}

// StudentLoginResult is a signed student token and the matching record
type StudentLoginResult struct {
	Token   string
	Student *models.StudentCertificate
}

// IssueCourse is one course to certify
type IssueCourse struct {
	Language string
	Level    string
	Scores   *models.Scores
}

// IssueRequest represents a direct certificate issuance by an admin
type IssueRequest struct {
	StudentName  string
	Email        string
	Phone        string
	DateOfBirth  string
	IDCardNumber string
	Courses      []IssueCourse
}

// Verify looks up a certificate by ID card number
func (s *StudentService) Verify(ctx context.Context, idCardNumber string) (*models.StudentCertificate, error) {
	return s.store.GetStudentByIDCard(ctx, idCardNumber)
}

// Login signs a student in by ID card number
func (s *StudentService) Login(ctx context.Context, idCardNumber string) (*StudentLoginResult, error) {
	student, err := s.store.GetStudentByIDCard(ctx, idCardNumber)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.StudentToken(student.ID, student.IDCardNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &StudentLoginResult{Token: token, Student: student}, nil
}

// Profile returns the record of a signed-in student
func (s *StudentService) Profile(ctx context.Context, studentID string) (*models.StudentCertificate, error) {
	return s.store.GetStudentByID(ctx, studentID)
}

// List returns every student record
func (s *StudentService) List(ctx context.Context) ([]*models.StudentCertificate, error) {
	return s.store.ListStudents(ctx)
}

// Issue certifies courses for a student, dated today and valid for three years.
// Courses are appended when the ID card already has a record.
func (s *StudentService) Issue(ctx context.Context, req *IssueRequest) (*models.StudentCertificate, error) {
	now := s.now().UTC()
	issued := now.Format(storage.DateLayout)
	validUntil := now.AddDate(storage.CertificateValidityYears, 0, 0).Format(storage.DateLayout)

	cert := &models.StudentCertificate{
		StudentName:  strings.TrimSpace(req.StudentName),
		IDCardNumber: storage.NormalizeIDCard(req.IDCardNumber),
		Email:        req.Email,
		Phone:        req.Phone,
		DateOfBirth:  req.DateOfBirth,
		Courses:      make([]models.CourseCertificate, 0, len(req.Courses)),
	}
	for _, c := range req.Courses {
		cert.Courses = append(cert.Courses, models.CourseCertificate{
			Language:              strings.TrimSpace(c.Language),
			Level:                 strings.ToUpper(strings.TrimSpace(c.Level)),
			CertificateIssueDate:  issued,
			CertificateValidUntil: validUntil,
			Scores:                c.Scores,
		})
	}

	student, err := s.store.IssueCertificate(ctx, cert)
	if err != nil {
		return nil, fmt.Errorf("failed to issue certificate: %w", err)
	}

	s.logger.Info("Certificate issued",
		zap.String("id_card_number", student.IDCardNumber),
		zap.Int("courses", len(req.Courses)),
	)

	return student, nil
}

// VerificationURL is the public page that shows the certificate of an ID card
func (s *StudentService) VerificationURL(idCardNumber string) string {
	return s.site.VerificationURL(idCardNumber)
}

// QRCode renders a PNG QR code pointing at the verification page of a known ID card
func (s *StudentService) QRCode(ctx context.Context, idCardNumber string) ([]byte, error) {
	student, err := s.store.GetStudentByIDCard(ctx, idCardNumber)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(s.VerificationURL(student.IDCardNumber), qrcode.Medium, s.site.QRCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
