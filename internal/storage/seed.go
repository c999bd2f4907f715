package storage

import (
	"time"

	"github.com/hamzaz9912/eliedu/internal/storage/models"
)

func course(language, level, issued, validUntil string) models.CourseCertificate {
	return models.CourseCertificate{
		Language:              language,
		Level:                 level,
		CertificateIssueDate:  issued,
		CertificateValidUntil: validUntil,
	}
}

// SampleStudents returns the demo student records loaded into an empty store
func SampleStudents(now time.Time) []*models.StudentCertificate {
	weber := course("German", "B2", "2025-09-15", "2026-09-15")
	weber.Scores = &models.Scores{Listening: 7.5, Reading: 8.0, Writing: 7.0, Speaking: 7.5, Overall: 7.5}

	students := []*models.StudentCertificate{
		{
			StudentName:  "Ahmed Al Mahmoud",
			IDCardNumber: "STU2024001",
			Courses: []models.CourseCertificate{
				course("French", "A1", "2024-01-15", "2027-01-15"),
				course("French", "A2", "2024-06-20", "2027-06-20"),
			},
		},
		{
			StudentName:  "Fatima Hassan",
			IDCardNumber: "STU2024002",
			Courses: []models.CourseCertificate{
				course("German", "A1", "2024-02-10", "2027-02-10"),
				course("German", "A2", "2024-07-15", "2027-07-15"),
				course("German", "B1", "2024-12-20", "2027-12-20"),
			},
		},
		{
			StudentName:  "Maria Rodriguez",
			IDCardNumber: "STU2024003",
			Courses: []models.CourseCertificate{
				course("Spanish", "A1", "2024-03-05", "2027-03-05"),
				course("Spanish", "A2", "2024-08-10", "2027-08-10"),
			},
		},
		{
			StudentName:  "John Smith",
			IDCardNumber: "STU2024004",
			Courses: []models.CourseCertificate{
				course("Italian", "A1", "2024-04-12", "2027-04-12"),
			},
		},
		{
			StudentName:  "Sara Abdullah",
			IDCardNumber: "STU2024005",
			Courses: []models.CourseCertificate{
				course("English", "B1", "2024-05-18", "2027-05-18"),
				course("English", "B2", "2024-10-22", "2027-10-22"),
			},
		},
		{
			StudentName:  "Anna Schmidt",
			IDCardNumber: "37301-1289468-7",
			Courses: []models.CourseCertificate{
				course("Deutsch", "A1", "2025-09-15", "2026-09-15"),
			},
		},
		{
			StudentName:  "Michael Weber",
			IDCardNumber: "STU20240022",
			Courses:      []models.CourseCertificate{weber},
		},
	}

	for _, s := range students {
		s.CreatedAt = now
		s.UpdatedAt = now
	}
	return students
}
