// Package notify sends applicant e-mails when a course registration is
// received and when an admin verifies or rejects it.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/hamzaz9912/eliedu/internal/config"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Notifier informs applicants about their registration
type Notifier interface {
	RegistrationReceived(ctx context.Context, reg *models.CourseRegistration) error
	RegistrationReviewed(ctx context.Context, reg *models.CourseRegistration) error
}

// New returns a SendGrid notifier when notifications are enabled, a no-op one otherwise
func New(cfg config.NotifyConfig, site config.SiteConfig, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewSendGrid(sendgrid.NewSendClient(cfg.SendGridAPIKey), cfg, site, logger)
}

// Nop discards every notification
type Nop struct{}

// RegistrationReceived implements Notifier
func (Nop) RegistrationReceived(context.Context, *models.CourseRegistration) error { return nil }

// RegistrationReviewed implements Notifier
func (Nop) RegistrationReviewed(context.Context, *models.CourseRegistration) error { return nil }

type mailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid delivers notifications through the SendGrid v3 mail API
type SendGrid struct {
	client mailClient
	from   *mail.Email
	site   config.SiteConfig
	logger *zap.Logger
}

// NewSendGrid creates a SendGrid notifier around client
func NewSendGrid(client mailClient, cfg config.NotifyConfig, site config.SiteConfig, logger *zap.Logger) *SendGrid {
	return &SendGrid{
		client: client,
		from:   mail.NewEmail(cfg.FromName, cfg.FromAddress),
		site:   site,
		logger: logger,
	}
}

type messageData struct {
	Name         string
	RegID        string
	Courses      []string
	Status       string
	Notes        string
	IDCardNumber string
	VerifyURL    string
}

var (
	receivedTmpl = template.Must(template.New("received").Parse(`<p>Dear {{.Name}},</p>
<p>We received your registration <strong>{{.RegID}}</strong> for:</p>
<ul>{{range .Courses}}<li>{{.}}</li>{{end}}</ul>
<p>Our team will review your documents and contact you shortly.</p>`))

	verifiedTmpl = template.Must(template.New("verified").Parse(`<p>Dear {{.Name}},</p>
<p>Your registration <strong>{{.RegID}}</strong> has been verified.</p>
<p>Your student ID card number is <strong>{{.IDCardNumber}}</strong>. Use it to sign in and to verify your certificate at
<a href="{{.VerifyURL}}">{{.VerifyURL}}</a>.</p>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}`))

	rejectedTmpl = template.Must(template.New("rejected").Parse(`<p>Dear {{.Name}},</p>
<p>Unfortunately we could not accept your registration <strong>{{.RegID}}</strong>.</p>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
<p>Please contact us if you have any questions.</p>`))
)

// RegistrationReceived implements Notifier
func (s *SendGrid) RegistrationReceived(ctx context.Context, reg *models.CourseRegistration) error {
	return s.send(ctx, reg, "We received your course registration", receivedTmpl)
}

// RegistrationReviewed implements Notifier. Pending registrations produce no mail.
func (s *SendGrid) RegistrationReviewed(ctx context.Context, reg *models.CourseRegistration) error {
	switch reg.Status {
	case models.StatusVerified:
		return s.send(ctx, reg, "Your course registration has been verified", verifiedTmpl)
	case models.StatusRejected:
		return s.send(ctx, reg, "Update on your course registration", rejectedTmpl)
	default:
		return nil
	}
}

func (s *SendGrid) send(ctx context.Context, reg *models.CourseRegistration, subject string, tmpl *template.Template) error {
	data := messageData{
		Name:         reg.FullName,
		RegID:        reg.ID,
		Courses:      reg.SelectedCourses,
		Status:       string(reg.Status),
		Notes:        reg.AdminNotes,
		IDCardNumber: reg.CertificateID,
		VerifyURL:    s.site.VerificationURL(reg.CertificateID),
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render %s mail: %w", tmpl.Name(), err)
	}

	to := mail.NewEmail(reg.FullName, reg.Email)
	message := mail.NewSingleEmail(s.from, subject, to, subject, body.String())

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send %s mail: %w", tmpl.Name(), err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected %s mail: status %d: %s", tmpl.Name(), resp.StatusCode, resp.Body)
	}

	s.logger.Info("Notification sent",
		zap.String("template", tmpl.Name()),
		zap.String("registration_id", reg.ID),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}
