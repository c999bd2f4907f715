package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hamzaz9912/eliedu/internal/config"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLStore keeps records in SQLite or PostgreSQL. Course lists are stored as
// JSON text columns; placeholders are written with ? and rebound for PostgreSQL.
type SQLStore struct {
	dbType       string
	dsn          string
	maxOpenConns int
	maxIdleConns int
	opts         Options
	now          func() time.Time

	mu sync.Mutex
	db *sql.DB
}

// NewSQLStore creates an unconnected SQL store for cfg.Database.Type
func NewSQLStore(cfg *config.Config, opts Options) (*SQLStore, error) {
	s := &SQLStore{
		dbType: cfg.Database.Type,
		opts:   opts.withDefaults(),
		now:    time.Now,
	}

	switch cfg.Database.Type {
	case "sqlite":
		s.dsn = cfg.Database.SQLite.Path
		s.maxOpenConns = 1
		s.maxIdleConns = 1
	case "postgres":
		s.dsn = cfg.GetDSN()
		s.maxOpenConns = cfg.Database.Postgres.MaxOpenConns
		s.maxIdleConns = cfg.Database.Postgres.MaxIdleConns
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}

	return s, nil
}

// Kind implements Store
func (s *SQLStore) Kind() string { return s.dbType }

// Connect opens the database, applies migrations and seeds sample students.
// It is safe to call repeatedly; only the first successful call does work.
func (s *SQLStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	var db *sql.DB
	var err error
	switch s.dbType {
	case "sqlite":
		if dir := filepath.Dir(s.dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err = sql.Open("sqlite3", s.dsn+"?_foreign_keys=on&_busy_timeout=5000")
		if err != nil {
			return fmt.Errorf("failed to open SQLite database: %w", err)
		}
	case "postgres":
		db, err = sql.Open("postgres", s.dsn)
		if err != nil {
			return fmt.Errorf("failed to open PostgreSQL database: %w", err)
		}
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := s.migrate(ctx, db); err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.opts.Logger.Info("Database connected", zap.String("type", s.dbType))

	if s.opts.SeedSampleData {
		if err := s.seed(ctx); err != nil {
			s.opts.Logger.Error("Failed to seed sample data", zap.Error(err))
		}
	}
	return nil
}

// Disconnect closes the connection pool
func (s *SQLStore) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ping implements Store
func (s *SQLStore) Ping(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (s *SQLStore) conn(ctx context.Context) (*sql.DB, error) {
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("database disconnected")
	}
	return s.db, nil
}

func (s *SQLStore) migrate(ctx context.Context, db *sql.DB) error {
	migrationFile := "migrations/000001_init_schema.up.sql"
	if s.dbType == "postgres" {
		migrationFile = "migrations/000001_init_schema.postgres.up.sql"
	}

	content, err := migrationsFS.ReadFile(migrationFile)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", migrationFile, err)
	}

	var statements []string
	var current strings.Builder
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(line, ";") {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %s failed: %w\nStatement: %s", migrationFile, err, stmt)
		}
	}
	return nil
}

func (s *SQLStore) seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM student_certificates`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count students: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	students := SampleStudents(s.now().UTC())
	for _, st := range students {
		st.ID = uuid.NewString()
		if err := s.insertStudent(ctx, tx, st); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.opts.Logger.Info("Sample student data initialized", zap.Int("count", len(students)))
	return nil
}

// rebind rewrites ? placeholders as $1..$n for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dbType != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate locks selected rows inside a transaction where the dialect supports it
func (s *SQLStore) forUpdate(query string) string {
	if s.dbType == "postgres" {
		return query + " FOR UPDATE"
	}
	return query
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// uniqueViolation maps a driver unique-constraint error to a storage sentinel
func uniqueViolation(err error) error {
	var detail string
	var sqliteErr sqlite3.Error
	var pqErr *pq.Error
	switch {
	case errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
		detail = sqliteErr.Error()
	case errors.As(err, &pqErr) && pqErr.Code == "23505":
		detail = pqErr.Constraint
	default:
		return nil
	}

	switch {
	case strings.Contains(detail, "username"):
		return ErrDuplicateUsername
	case strings.Contains(detail, "email"):
		return ErrDuplicateEmail
	case strings.Contains(detail, "id_card"):
		return ErrDuplicateIDCard
	}
	return fmt.Errorf("unique constraint violated: %s", detail)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// Students

const studentColumns = `id, student_name, id_card_number, email, phone, date_of_birth, courses_json, created_at, updated_at`

func scanStudent(row rowScanner) (*models.StudentCertificate, error) {
	var st models.StudentCertificate
	var coursesJSON string
	if err := row.Scan(&st.ID, &st.StudentName, &st.IDCardNumber, &st.Email, &st.Phone,
		&st.DateOfBirth, &coursesJSON, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(coursesJSON), &st.Courses); err != nil {
		return nil, fmt.Errorf("failed to decode courses for %s: %w", st.ID, err)
	}
	st.CreatedAt = st.CreatedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()
	return &st, nil
}

func (s *SQLStore) insertStudent(ctx context.Context, q execer, st *models.StudentCertificate) error {
	coursesJSON, err := json.Marshal(coursesOrEmpty(st.Courses))
	if err != nil {
		return fmt.Errorf("failed to encode courses: %w", err)
	}
	query := s.rebind(`INSERT INTO student_certificates (` + studentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = q.ExecContext(ctx, query, st.ID, st.StudentName, st.IDCardNumber, st.Email, st.Phone,
		st.DateOfBirth, string(coursesJSON), st.CreatedAt.UTC(), st.UpdatedAt.UTC())
	if err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to insert student: %w", err)
	}
	return nil
}

func (s *SQLStore) updateStudent(ctx context.Context, q execer, st *models.StudentCertificate) error {
	coursesJSON, err := json.Marshal(coursesOrEmpty(st.Courses))
	if err != nil {
		return fmt.Errorf("failed to encode courses: %w", err)
	}
	query := s.rebind(`UPDATE student_certificates SET student_name = ?, email = ?, phone = ?, date_of_birth = ?,
	                   courses_json = ?, updated_at = ? WHERE id = ?`)
	_, err = q.ExecContext(ctx, query, st.StudentName, st.Email, st.Phone, st.DateOfBirth,
		string(coursesJSON), st.UpdatedAt.UTC(), st.ID)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

func coursesOrEmpty(c []models.CourseCertificate) []models.CourseCertificate {
	if c == nil {
		return []models.CourseCertificate{}
	}
	return c
}

func (s *SQLStore) studentByIDCard(ctx context.Context, q execer, idCardNumber string, lock bool) (*models.StudentCertificate, error) {
	query := `SELECT ` + studentColumns + ` FROM student_certificates WHERE id_card_number = ?`
	if lock {
		query = s.forUpdate(query)
	}
	return scanStudent(q.QueryRowContext(ctx, s.rebind(query), idCardNumber))
}

// GetStudentByIDCard implements Store
func (s *SQLStore) GetStudentByIDCard(ctx context.Context, idCardNumber string) (*models.StudentCertificate, error) {
	db, err := s.conn(ctx)
	if err != nil {
		s.opts.Logger.Error("Error fetching student certificate", zap.Error(err))
		return nil, ErrNotFound
	}
	st, err := s.studentByIDCard(ctx, db, NormalizeIDCard(idCardNumber), false)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.opts.Logger.Error("Error fetching student certificate", zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return st, nil
}

// GetStudentByID implements Store
func (s *SQLStore) GetStudentByID(ctx context.Context, id string) (*models.StudentCertificate, error) {
	db, err := s.conn(ctx)
	if err != nil {
		s.opts.Logger.Error("Error fetching student by ID", zap.Error(err))
		return nil, ErrNotFound
	}
	query := s.rebind(`SELECT ` + studentColumns + ` FROM student_certificates WHERE id = ?`)
	st, err := scanStudent(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.opts.Logger.Error("Error fetching student by ID", zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return st, nil
}

// ListStudents implements Store
func (s *SQLStore) ListStudents(ctx context.Context) ([]*models.StudentCertificate, error) {
	students := []*models.StudentCertificate{}
	db, err := s.conn(ctx)
	if err != nil {
		s.opts.Logger.Error("Error listing students", zap.Error(err))
		return students, nil
	}

	rows, err := db.QueryContext(ctx, `SELECT `+studentColumns+` FROM student_certificates ORDER BY student_name, id`)
	if err != nil {
		s.opts.Logger.Error("Error listing students", zap.Error(err))
		return students, nil
	}
	defer rows.Close()

	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			s.opts.Logger.Error("Error scanning student", zap.Error(err))
			return []*models.StudentCertificate{}, nil
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		s.opts.Logger.Error("Error listing students", zap.Error(err))
		return []*models.StudentCertificate{}, nil
	}
	return students, nil
}

// IssueCertificate implements Store
func (s *SQLStore) IssueCertificate(ctx context.Context, cert *models.StudentCertificate) (*models.StudentCertificate, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()
	issued := cert.Clone()
	issued.IDCardNumber = NormalizeIDCard(issued.IDCardNumber)

	existing, err := s.studentByIDCard(ctx, tx, issued.IDCardNumber, true)
	switch {
	case err == nil:
		mergeIssued(existing, issued, now)
		if err := s.updateStudent(ctx, tx, existing); err != nil {
			return nil, err
		}
		issued = existing
	case errors.Is(err, sql.ErrNoRows):
		issued.ID = uuid.NewString()
		issued.CreatedAt = now
		issued.UpdatedAt = now
		if err := s.insertStudent(ctx, tx, issued); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit certificate: %w", err)
	}
	return issued, nil
}

// Contact submissions

// SubmitContactForm implements Store
func (s *SQLStore) SubmitContactForm(ctx context.Context, form *models.ContactSubmission) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	form.ID = uuid.NewString()
	form.SubmittedAt = s.now().UTC()
	form.IsRead = false

	query := s.rebind(`INSERT INTO contact_submissions (id, name, email, phone, message, submitted_at, is_read)
	                   VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := db.ExecContext(ctx, query, form.ID, form.Name, form.Email, form.Phone,
		form.Message, form.SubmittedAt, form.IsRead); err != nil {
		return fmt.Errorf("failed to insert contact submission: %w", err)
	}
	return nil
}

// Registrations

const registrationColumns = `id, full_name, email, phone, country_code, address, date_of_birth, id_type, id_number,
	id_document, selected_courses_json, status, admin_notes, submitted_at, verified_at, certificate_id_card, updated_at`

func scanRegistration(row rowScanner) (*models.CourseRegistration, error) {
	var r models.CourseRegistration
	var coursesJSON, status string
	var verifiedAt sql.NullTime
	if err := row.Scan(&r.ID, &r.FullName, &r.Email, &r.Phone, &r.CountryCode, &r.Address, &r.DateOfBirth,
		&r.IDType, &r.IDNumber, &r.IDDocument, &coursesJSON, &status, &r.AdminNotes, &r.SubmittedAt,
		&verifiedAt, &r.CertificateID, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(coursesJSON), &r.SelectedCourses); err != nil {
		return nil, fmt.Errorf("failed to decode selected courses for %s: %w", r.ID, err)
	}
	r.Status = models.RegistrationStatus(status)
	r.VerifiedAt = timePtr(verifiedAt)
	r.SubmittedAt = r.SubmittedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

// CreateRegistration implements Store
func (s *SQLStore) CreateRegistration(ctx context.Context, reg *models.CourseRegistration) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if reg.ID == "" {
		reg.ID = NewRegistrationID(now)
	}
	reg.Status = models.StatusPending
	reg.SubmittedAt = now
	reg.UpdatedAt = now
	reg.VerifiedAt = nil
	reg.CertificateID = ""

	selected := reg.SelectedCourses
	if selected == nil {
		selected = []string{}
	}
	coursesJSON, err := json.Marshal(selected)
	if err != nil {
		return fmt.Errorf("failed to encode selected courses: %w", err)
	}

	query := s.rebind(`INSERT INTO course_registrations (` + registrationColumns + `)
	                   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = db.ExecContext(ctx, query, reg.ID, reg.FullName, reg.Email, reg.Phone, reg.CountryCode,
		reg.Address, reg.DateOfBirth, reg.IDType, reg.IDNumber, reg.IDDocument, string(coursesJSON),
		string(reg.Status), reg.AdminNotes, reg.SubmittedAt, nullTime(reg.VerifiedAt), reg.CertificateID, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

// GetRegistration implements Store
func (s *SQLStore) GetRegistration(ctx context.Context, id string) (*models.CourseRegistration, error) {
	db, err := s.conn(ctx)
	if err != nil {
		s.opts.Logger.Error("Error fetching registration", zap.Error(err))
		return nil, ErrNotFound
	}
	query := s.rebind(`SELECT ` + registrationColumns + ` FROM course_registrations WHERE id = ?`)
	r, err := scanRegistration(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.opts.Logger.Error("Error fetching registration", zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return r, nil
}

// GetAllRegistrations implements Store
func (s *SQLStore) GetAllRegistrations(ctx context.Context) ([]*models.CourseRegistration, error) {
	regs := []*models.CourseRegistration{}
	db, err := s.conn(ctx)
	if err != nil {
		s.opts.Logger.Error("Error fetching registrations", zap.Error(err))
		return regs, nil
	}

	rows, err := db.QueryContext(ctx, `SELECT `+registrationColumns+` FROM course_registrations ORDER BY submitted_at DESC, id DESC`)
	if err != nil {
		s.opts.Logger.Error("Error fetching registrations", zap.Error(err))
		return regs, nil
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			s.opts.Logger.Error("Error scanning registration", zap.Error(err))
			return []*models.CourseRegistration{}, nil
		}
		regs = append(regs, r)
	}
	if err := rows.Err(); err != nil {
		s.opts.Logger.Error("Error fetching registrations", zap.Error(err))
		return []*models.CourseRegistration{}, nil
	}
	// ties on submitted_at break by id, as in every backend
	sortNewestFirst(regs)
	return regs, nil
}

// UpdateRegistration implements Store. The status change and the derived
// certificate write commit together.
func (s *SQLStore) UpdateRegistration(ctx context.Context, id string, update models.RegistrationUpdate) (*models.CourseRegistration, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := s.forUpdate(`SELECT ` + registrationColumns + ` FROM course_registrations WHERE id = ?`)
	reg, err := scanRegistration(tx.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}

	verifies, err := planUpdate(reg, update)
	if err != nil {
		return nil, err
	}
	previous := reg.Status
	now := s.now().UTC()

	if verifies {
		idCard, err := NewStudentIDCard(now)
		if err != nil {
			return nil, err
		}
		derived := DeriveCertificate(reg, s.opts.Catalog, idCard, now)

		existing, err := s.studentByIDCard(ctx, tx, derived.IDCardNumber, true)
		switch {
		case err == nil:
			replaceDerived(existing, derived, now)
			err = s.updateStudent(ctx, tx, existing)
		case errors.Is(err, sql.ErrNoRows):
			derived.ID = uuid.NewString()
			err = s.insertStudent(ctx, tx, derived)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to write derived certificate: %w", err)
		}
		reg.CertificateID = derived.IDCardNumber
	}

	applyUpdate(reg, update, now)

	updateQuery := s.rebind(`UPDATE course_registrations SET status = ?, admin_notes = ?, verified_at = ?,
	                         certificate_id_card = ?, updated_at = ? WHERE id = ? AND status = ?`)
	res, err := tx.ExecContext(ctx, updateQuery, string(reg.Status), reg.AdminNotes, nullTime(reg.VerifiedAt),
		reg.CertificateID, reg.UpdatedAt, reg.ID, string(previous))
	if err != nil {
		return nil, fmt.Errorf("failed to update registration: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: registration changed concurrently", ErrInvalidTransition)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration update: %w", err)
	}

	if verifies {
		s.opts.Logger.Info("Certificate issued for verified registration",
			zap.String("registration_id", reg.ID),
			zap.String("id_card_number", reg.CertificateID),
		)
	}
	return reg, nil
}

// Admin users

const adminColumns = `id, username, name, email, password_hash, role, is_active, created_at, updated_at, last_login`

func scanAdmin(row rowScanner) (*models.AdminUser, error) {
	var u models.AdminUser
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt, &lastLogin); err != nil {
		return nil, err
	}
	u.LastLogin = timePtr(lastLogin)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// GetAdminUser implements Store
func (s *SQLStore) GetAdminUser(ctx context.Context, username string) (*models.AdminUser, error) {
	db, err := s.conn(ctx)
	if err != nil {
		s.opts.Logger.Error("Error fetching admin user", zap.Error(err))
		return nil, ErrNotFound
	}
	query := s.rebind(`SELECT ` + adminColumns + ` FROM admin_users WHERE username = ? AND is_active = ?`)
	u, err := scanAdmin(db.QueryRowContext(ctx, query, username, true))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.opts.Logger.Error("Error fetching admin user", zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return u, nil
}

// GetAllAdminUsers implements Store
func (s *SQLStore) GetAllAdminUsers(ctx context.Context) ([]*models.AdminUser, error) {
	users := []*models.AdminUser{}
	db, err := s.conn(ctx)
	if err != nil {
		s.opts.Logger.Error("Error fetching admin users", zap.Error(err))
		return users, nil
	}

	rows, err := db.QueryContext(ctx, `SELECT `+adminColumns+` FROM admin_users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		s.opts.Logger.Error("Error fetching admin users", zap.Error(err))
		return users, nil
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanAdmin(rows)
		if err != nil {
			s.opts.Logger.Error("Error scanning admin user", zap.Error(err))
			return []*models.AdminUser{}, nil
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		s.opts.Logger.Error("Error fetching admin users", zap.Error(err))
		return []*models.AdminUser{}, nil
	}
	return users, nil
}

// CreateAdminUser implements Store
func (s *SQLStore) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM admin_users WHERE username = ?`), user.Username).Scan(&n); err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if n > 0 {
		return ErrDuplicateUsername
	}
	if err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM admin_users WHERE lower(email) = ?`), NormalizeEmail(user.Email)).Scan(&n); err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if n > 0 {
		return ErrDuplicateEmail
	}

	now := s.now().UTC()
	created := user.Clone()
	created.ID = uuid.NewString()
	created.Email = strings.TrimSpace(user.Email)
	created.IsActive = true
	created.CreatedAt = now
	created.UpdatedAt = now
	created.LastLogin = nil

	query := s.rebind(`INSERT INTO admin_users (` + adminColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, query, created.ID, created.Username, created.Name, created.Email,
		created.PasswordHash, created.Role, created.IsActive, created.CreatedAt, created.UpdatedAt,
		nullTime(created.LastLogin)); err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to insert admin user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to commit admin user: %w", err)
	}

	*user = *created
	return nil
}

// TouchAdminLogin implements Store
func (s *SQLStore) TouchAdminLogin(ctx context.Context, id string, at time.Time) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	query := s.rebind(`UPDATE admin_users SET last_login = ? WHERE id = ?`)
	res, err := db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
