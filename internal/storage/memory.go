package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.uber.org/zap"
)

// MemoryStore keeps everything in process memory. Records are copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	opts Options
	now  func() time.Time

	mu            sync.RWMutex
	seeded        bool
	students      []*models.StudentCertificate
	registrations []*models.CourseRegistration
	admins        []*models.AdminUser
	contacts      []*models.ContactSubmission
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts: opts.withDefaults(),
		now:  time.Now,
	}
}

// Kind implements Store
func (m *MemoryStore) Kind() string { return "memory" }

// Connect seeds sample students the first time it is called
func (m *MemoryStore) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seeded {
		return nil
	}
	m.seeded = true

	if !m.opts.SeedSampleData || len(m.students) > 0 {
		return nil
	}
	now := m.now().UTC()
	for _, s := range SampleStudents(now) {
		s.ID = uuid.NewString()
		m.students = append(m.students, s)
	}
	m.opts.Logger.Info("Sample student data initialized", zap.Int("count", len(m.students)))
	return nil
}

// Disconnect implements Store
func (m *MemoryStore) Disconnect(ctx context.Context) error { return nil }

// Ping implements Store
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) findStudentByIDCard(idCardNumber string) *models.StudentCertificate {
	for _, s := range m.students {
		if s.IDCardNumber == idCardNumber {
			return s
		}
	}
	return nil
}

// GetStudentByIDCard implements Store
func (m *MemoryStore) GetStudentByIDCard(ctx context.Context, idCardNumber string) (*models.StudentCertificate, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s := m.findStudentByIDCard(NormalizeIDCard(idCardNumber)); s != nil {
		return s.Clone(), nil
	}
	return nil, ErrNotFound
}

// GetStudentByID implements Store
func (m *MemoryStore) GetStudentByID(ctx context.Context, id string) (*models.StudentCertificate, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.students {
		if s.ID == id {
			return s.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// ListStudents implements Store
func (m *MemoryStore) ListStudents(ctx context.Context) ([]*models.StudentCertificate, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.StudentCertificate, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StudentName < out[j].StudentName })
	return out, nil
}

// IssueCertificate implements Store
func (m *MemoryStore) IssueCertificate(ctx context.Context, cert *models.StudentCertificate) (*models.StudentCertificate, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	issued := cert.Clone()
	issued.IDCardNumber = NormalizeIDCard(issued.IDCardNumber)

	if existing := m.findStudentByIDCard(issued.IDCardNumber); existing != nil {
		mergeIssued(existing, issued, now)
		return existing.Clone(), nil
	}

	issued.ID = uuid.NewString()
	issued.CreatedAt = now
	issued.UpdatedAt = now
	m.students = append(m.students, issued)
	return issued.Clone(), nil
}

// SubmitContactForm implements Store
func (m *MemoryStore) SubmitContactForm(ctx context.Context, form *models.ContactSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *form
	c.ID = uuid.NewString()
	c.SubmittedAt = m.now().UTC()
	c.IsRead = false
	m.contacts = append(m.contacts, &c)
	form.ID = c.ID
	form.SubmittedAt = c.SubmittedAt
	return nil
}

// Contacts returns stored contact submissions
func (m *MemoryStore) Contacts() []*models.ContactSubmission {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.ContactSubmission, 0, len(m.contacts))
	for _, c := range m.contacts {
		cc := *c
		out = append(out, &cc)
	}
	return out
}

// CreateRegistration implements Store
func (m *MemoryStore) CreateRegistration(ctx context.Context, reg *models.CourseRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if reg.ID == "" {
		reg.ID = NewRegistrationID(now)
	}
	for _, r := range m.registrations {
		if r.ID == reg.ID {
			return fmt.Errorf("registration %s already exists", reg.ID)
		}
	}
	reg.Status = models.StatusPending
	reg.SubmittedAt = now
	reg.UpdatedAt = now
	reg.VerifiedAt = nil
	reg.CertificateID = ""

	m.registrations = append(m.registrations, reg.Clone())
	return nil
}

func (m *MemoryStore) findRegistration(id string) *models.CourseRegistration {
	for _, r := range m.registrations {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// GetRegistration implements Store
func (m *MemoryStore) GetRegistration(ctx context.Context, id string) (*models.CourseRegistration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r := m.findRegistration(id); r != nil {
		return r.Clone(), nil
	}
	return nil, ErrNotFound
}

// GetAllRegistrations implements Store
func (m *MemoryStore) GetAllRegistrations(ctx context.Context) ([]*models.CourseRegistration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.CourseRegistration, 0, len(m.registrations))
	for _, r := range m.registrations {
		out = append(out, r.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(regs []*models.CourseRegistration) {
	sort.SliceStable(regs, func(i, j int) bool {
		if !regs[i].SubmittedAt.Equal(regs[j].SubmittedAt) {
			return regs[i].SubmittedAt.After(regs[j].SubmittedAt)
		}
		return regs[i].ID > regs[j].ID
	})
}

// UpdateRegistration implements Store
func (m *MemoryStore) UpdateRegistration(ctx context.Context, id string, update models.RegistrationUpdate) (*models.CourseRegistration, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	reg := m.findRegistration(id)
	if reg == nil {
		return nil, ErrNotFound
	}

	verifies, err := planUpdate(reg, update)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	if verifies {
		idCard, err := NewStudentIDCard(now)
		if err != nil {
			return nil, err
		}
		derived := DeriveCertificate(reg, m.opts.Catalog, idCard, now)
		if existing := m.findStudentByIDCard(derived.IDCardNumber); existing != nil {
			replaceDerived(existing, derived, now)
		} else {
			derived.ID = uuid.NewString()
			m.students = append(m.students, derived)
		}
		reg.CertificateID = derived.IDCardNumber
		m.opts.Logger.Info("Certificate issued for verified registration",
			zap.String("registration_id", reg.ID),
			zap.String("id_card_number", derived.IDCardNumber),
		)
	}

	applyUpdate(reg, update, now)
	return reg.Clone(), nil
}

// GetAdminUser implements Store
func (m *MemoryStore) GetAdminUser(ctx context.Context, username string) (*models.AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.admins {
		if u.Username == username && u.IsActive {
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// GetAllAdminUsers implements Store
func (m *MemoryStore) GetAllAdminUsers(ctx context.Context) ([]*models.AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.AdminUser, 0, len(m.admins))
	for i := len(m.admins) - 1; i >= 0; i-- {
		out = append(out, m.admins[i].Clone())
	}
	return out, nil
}

// CreateAdminUser implements Store
func (m *MemoryStore) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := NormalizeEmail(user.Email)
	for _, u := range m.admins {
		if u.Username == user.Username {
			return ErrDuplicateUsername
		}
		if NormalizeEmail(u.Email) == email {
			return ErrDuplicateEmail
		}
	}

	now := m.now().UTC()
	user.ID = uuid.NewString()
	user.Email = strings.TrimSpace(user.Email)
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastLogin = nil
	m.admins = append(m.admins, user.Clone())
	return nil
}

// TouchAdminLogin implements Store
func (m *MemoryStore) TouchAdminLogin(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.admins {
		if u.ID == id {
			t := at.UTC()
			u.LastLogin = &t
			return nil
		}
	}
	return ErrNotFound
}
