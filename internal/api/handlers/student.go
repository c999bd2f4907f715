package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hamzaz9912/eliedu/internal/api/middleware"
	"github.com/hamzaz9912/eliedu/internal/service"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.uber.org/zap"
)

const studentNotFound = "Student record not found"

// StudentHandler handles certificate verification, student sign-in and
// certificate issuance
type StudentHandler struct {
	students StudentService
	logger   *zap.Logger
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(students StudentService, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{
		students: students,
		logger:   logger,
	}
}

// studentSummary is the student view returned to signed-in students
func studentSummary(s *models.StudentCertificate) gin.H {
	return gin.H{
		"id":           s.ID,
		"studentName":  s.StudentName,
		"idCardNumber": s.IDCardNumber,
		"courses":      s.Courses,
	}
}

// Verify returns the certificate record of an ID card number
// @Router /api/verify/{idCardNumber} [get]
func (h *StudentHandler) Verify(c *gin.Context) {
	idCardNumber := strings.TrimSpace(c.Param("idCardNumber"))
	if idCardNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID card number is required"})
		return
	}

	student, err := h.students.Verify(c.Request.Context(), idCardNumber)
	if err != nil {
		respondError(c, h.logger, err, studentNotFound)
		return
	}

	c.JSON(http.StatusOK, student)
}

// QRCode returns a PNG QR code linking to the public verification page
// @Router /api/verify/{idCardNumber}/qrcode [get]
func (h *StudentHandler) QRCode(c *gin.Context) {
	idCardNumber := strings.TrimSpace(c.Param("idCardNumber"))

	png, err := h.students.QRCode(c.Request.Context(), idCardNumber)
	if err != nil {
		respondError(c, h.logger, err, studentNotFound)
		return
	}

	filename := sanitizeFilename(strings.ToUpper(idCardNumber)) + "-qrcode.png"
	c.Header("Content-Disposition", "inline; filename="+filename)
	c.Data(http.StatusOK, "image/png", png)
}

// StudentLoginRequest represents a student sign-in
type StudentLoginRequest struct {
	IDCardNumber string `json:"idCardNumber" binding:"required,max=50"`
}

// Login signs a student in by ID card number
// @Router /api/user/login [post]
func (h *StudentHandler) Login(c *gin.Context) {
	var req StudentLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.students.Login(c.Request.Context(), req.IDCardNumber)
	if err != nil {
		respondError(c, h.logger, err, studentNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    studentSummary(result.Student),
	})
}

// VerifyToken confirms the bearer token belongs to a student
// @Router /api/user/verify [get]
func (h *StudentHandler) VerifyToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"valid":     true,
		"studentId": c.GetString(middleware.ContextUserID),
	})
}

// Profile returns the record of the signed-in student
// @Router /api/user/profile [get]
func (h *StudentHandler) Profile(c *gin.Context) {
	student, err := h.students.Profile(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.logger, err, studentNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"student": studentSummary(student),
	})
}

// ListStudents returns every student record
// @Router /api/admin/students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"students": students,
	})
}

// ScoresRequest holds optional exam results, each 0 to 100
type ScoresRequest struct {
	Listening float64 `json:"listening" binding:"gte=0,lte=100"`
	Reading   float64 `json:"reading" binding:"gte=0,lte=100"`
	Writing   float64 `json:"writing" binding:"gte=0,lte=100"`
	Speaking  float64 `json:"speaking" binding:"gte=0,lte=100"`
	Overall   float64 `json:"overall" binding:"gte=0,lte=100"`
}

// IssueCourseRequest is one course to certify
type IssueCourseRequest struct {
	Language string         `json:"language" binding:"required,max=50"`
	Level    string         `json:"level" binding:"required,oneof=A1 A2 B1 B2 C1 C2 a1 a2 b1 b2 c1 c2"`
	Scores   *ScoresRequest `json:"scores"`
}

// IssueCertificateRequest represents a direct certificate issuance
type IssueCertificateRequest struct {
	StudentName  string               `json:"studentName" binding:"required,min=2,max=100"`
	Email        string               `json:"email" binding:"required,email"`
	Phone        string               `json:"phone" binding:"max=20"`
	DateOfBirth  string               `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	IDCardNumber string               `json:"idCardNumber" binding:"required,min=3,max=50"`
	Courses      []IssueCourseRequest `json:"courses" binding:"required,min=1,dive"`
}

// IssueCertificate issues certificates for a student
// @Router /api/admin/students [post]
func (h *StudentHandler) IssueCertificate(c *gin.Context) {
	var req IssueCertificateRequest
	if !bindJSON(c, &req) {
		return
	}

	issue := &service.IssueRequest{
		StudentName:  req.StudentName,
		Email:        req.Email,
		Phone:        req.Phone,
		DateOfBirth:  req.DateOfBirth,
		IDCardNumber: req.IDCardNumber,
	}
	for _, course := range req.Courses {
		ic := service.IssueCourse{Language: course.Language, Level: course.Level}
		if course.Scores != nil {
			ic.Scores = &models.Scores{
				Listening: course.Scores.Listening,
				Reading:   course.Scores.Reading,
				Writing:   course.Scores.Writing,
				Speaking:  course.Scores.Speaking,
				Overall:   course.Scores.Overall,
			}
		}
		issue.Courses = append(issue.Courses, ic)
	}

	student, err := h.students.Issue(c.Request.Context(), issue)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Student certificate issued successfully",
		"student": student,
	})
}

var invalidFilenameChars = regexp.MustCompile(`[/\\:*?"<>|;\s]`)

// sanitizeFilename makes a string safe for a Content-Disposition filename
func sanitizeFilename(name string) string {
	sanitized := invalidFilenameChars.ReplaceAllString(name, "_")
	sanitized = strings.Trim(sanitized, ". ")
	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}
	if sanitized == "" {
		return "certificate"
	}
	return sanitized
}
