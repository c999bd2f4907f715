// Package models defines the records kept by every storage backend: student
// certificates, course registrations, admin users and contact submissions.
// JSON names match what the website's client code reads; bson names match the
// document collections.
package models

import "time"

// RegistrationStatus is the review state of a course registration
type RegistrationStatus string

const (
	StatusPending  RegistrationStatus = "pending"
	StatusVerified RegistrationStatus = "verified"
	StatusRejected RegistrationStatus = "rejected"
)

// Valid reports whether s is one of the known statuses
func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed
func (s RegistrationStatus) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// ID document kinds accepted on registration
const (
	IDTypeIDCard   = "id_card"
	IDTypePassport = "passport"
)

// Admin roles
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Scores holds per-skill exam results for a course
type Scores struct {
	Listening float64 `json:"listening" bson:"listening"`
	Reading   float64 `json:"reading" bson:"reading"`
	Writing   float64 `json:"writing" bson:"writing"`
	Speaking  float64 `json:"speaking" bson:"speaking"`
	Overall   float64 `json:"overall" bson:"overall"`
}

// CourseCertificate is one completed course on a student's record.
// Dates are calendar dates formatted YYYY-MM-DD.
type CourseCertificate struct {
	Language              string  `json:"language" bson:"language"`
	Level                 string  `json:"level" bson:"level"`
	CertificateIssueDate  string  `json:"certificateIssueDate" bson:"certificateIssueDate"`
	CertificateValidUntil string  `json:"certificateValidUntil" bson:"certificateValidUntil"`
	Scores                *Scores `json:"scores,omitempty" bson:"scores,omitempty"`
}

// StudentCertificate is a student's certificate record keyed by ID card number
type StudentCertificate struct {
	ID           string              `json:"id" bson:"-"`
	StudentName  string              `json:"studentName" bson:"studentName"`
	IDCardNumber string              `json:"idCardNumber" bson:"idCardNumber"`
	Email        string              `json:"email,omitempty" bson:"email,omitempty"`
	Phone        string              `json:"phone,omitempty" bson:"phone,omitempty"`
	DateOfBirth  string              `json:"dateOfBirth,omitempty" bson:"dateOfBirth,omitempty"`
	Courses      []CourseCertificate `json:"courses" bson:"courses"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy
func (s *StudentCertificate) Clone() *StudentCertificate {
	c := *s
	c.Courses = make([]CourseCertificate, len(s.Courses))
	for i, course := range s.Courses {
		c.Courses[i] = course
		if course.Scores != nil {
			scores := *course.Scores
			c.Courses[i].Scores = &scores
		}
	}
	return &c
}

// CourseRegistration is an application to enrol in one or more courses
type CourseRegistration struct {
	ID              string             `json:"id" bson:"_id"`
	FullName        string             `json:"fullName" bson:"fullName"`
	Email           string             `json:"email" bson:"email"`
	Phone           string             `json:"phone" bson:"phone"`
	CountryCode     string             `json:"countryCode" bson:"countryCode"`
	Address         string             `json:"address" bson:"address"`
	DateOfBirth     string             `json:"dateOfBirth" bson:"dateOfBirth"`
	IDType          string             `json:"idType" bson:"idType"`
	IDNumber        string             `json:"idNumber" bson:"idNumber"`
	IDDocument      string             `json:"idDocument,omitempty" bson:"idDocument,omitempty"`
	HasIDDocument   bool               `json:"hasIdDocument" bson:"-"`
	SelectedCourses []string           `json:"selectedCourses" bson:"selectedCourses"`
	Status          RegistrationStatus `json:"status" bson:"status"`
	AdminNotes      string             `json:"adminNotes,omitempty" bson:"adminNotes,omitempty"`
	SubmittedAt     time.Time          `json:"submittedAt" bson:"submittedAt"`
	VerifiedAt      *time.Time         `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
	CertificateID   string             `json:"certificateIdCard,omitempty" bson:"certificateIdCard,omitempty"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy
func (r *CourseRegistration) Clone() *CourseRegistration {
	c := *r
	c.SelectedCourses = append([]string(nil), r.SelectedCourses...)
	if r.VerifiedAt != nil {
		t := *r.VerifiedAt
		c.VerifiedAt = &t
	}
	return &c
}

// WithoutDocument returns a copy safe for listings: the sealed document is
// dropped and only its presence is reported.
func (r *CourseRegistration) WithoutDocument() *CourseRegistration {
	c := r.Clone()
	c.HasIDDocument = r.IDDocument != ""
	c.IDDocument = ""
	return c
}

// RegistrationUpdate is a partial update; nil fields are left untouched
type RegistrationUpdate struct {
	Status     *RegistrationStatus `json:"status,omitempty"`
	AdminNotes *string             `json:"adminNotes,omitempty"`
}

// Empty reports whether the update changes nothing
func (u RegistrationUpdate) Empty() bool {
	return u.Status == nil && u.AdminNotes == nil
}

// AdminUser is a back-office account
type AdminUser struct {
	ID           string     `json:"id" bson:"-"`
	Username     string     `json:"username" bson:"username"`
	Name         string     `json:"name" bson:"name"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"passwordHash"`
	Role         string     `json:"role" bson:"role"`
	IsActive     bool       `json:"isActive" bson:"isActive"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
}

// Clone returns a deep copy
func (u *AdminUser) Clone() *AdminUser {
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// ContactSubmission is a message left through the contact form
type ContactSubmission struct {
	ID          string    `json:"id" bson:"-"`
	Name        string    `json:"name" bson:"name"`
	Email       string    `json:"email" bson:"email"`
	Phone       string    `json:"phone" bson:"phone"`
	Message     string    `json:"message" bson:"message"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
	IsRead      bool      `json:"isRead" bson:"isRead"`
}
