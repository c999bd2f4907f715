package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hamzaz9912/eliedu/internal/config"
	"github.com/hamzaz9912/eliedu/internal/storage/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Collection names shared with the website's existing database
const (
	collAdminUsers    = "adminusers"
	collRegistrations = "courseregistrations"
	collContacts      = "contactsubmissions"
	collStudents      = "studentcertificates"
)

type studentDoc struct {
	ID                        primitive.ObjectID `bson:"_id,omitempty"`
	models.StudentCertificate `bson:",inline"`
}

func (d *studentDoc) model() *models.StudentCertificate {
	s := d.StudentCertificate
	s.ID = d.ID.Hex()
	return &s
}

type adminDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	models.AdminUser `bson:",inline"`
}

func (d *adminDoc) model() *models.AdminUser {
	u := d.AdminUser
	u.ID = d.ID.Hex()
	return &u
}

type contactDoc struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty"`
	models.ContactSubmission `bson:",inline"`
}

// MongoStore keeps records in MongoDB. The client is created on first use
// with a single pooled connection.
type MongoStore struct {
	cfg  config.MongoConfig
	opts Options
	now  func() time.Time

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore creates an unconnected MongoDB store
func NewMongoStore(cfg config.MongoConfig, opts Options) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri not specified")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 2 * time.Minute
	}
	return &MongoStore{
		cfg:  cfg,
		opts: opts.withDefaults(),
		now:  time.Now,
	}, nil
}

// Kind implements Store
func (m *MongoStore) Kind() string { return "mongo" }

// Connect dials MongoDB, creates indexes and seeds sample students once
func (m *MongoStore) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return nil
	}

	clientOpts := options.Client().
		ApplyURI(m.cfg.URI).
		SetMaxPoolSize(1).
		SetServerSelectionTimeout(m.cfg.ConnectTimeout).
		SetConnectTimeout(m.cfg.ConnectTimeout).
		SetSocketTimeout(m.cfg.ConnectTimeout).
		SetMaxConnIdleTime(time.Minute)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(m.cfg.Database)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	m.client = client
	m.db = db
	m.opts.Logger.Info("MongoDB connected", zap.String("database", m.cfg.Database))

	if m.opts.SeedSampleData {
		if err := m.seed(ctx); err != nil {
			m.opts.Logger.Error("Failed to seed sample data", zap.Error(err))
		}
	}
	return nil
}

// emailCollation compares admin e-mails case-insensitively
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	asc := func(field string) bson.D { return bson.D{{Key: field, Value: 1}} }
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		collAdminUsers: {
			{Keys: asc("username"), Options: unique},
			{Keys: asc("email"), Options: options.Index().SetUnique(true).SetCollation(emailCollation)},
			{Keys: asc("createdAt")},
		},
		collRegistrations: {
			{Keys: asc("status")},
			{Keys: asc("email")},
			{Keys: asc("submittedAt")},
		},
		collContacts: {
			{Keys: asc("submittedAt")},
			{Keys: asc("isRead")},
		},
		collStudents: {
			{Keys: asc("idCardNumber"), Options: unique},
		},
	}

	for coll, idx := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func (m *MongoStore) seed(ctx context.Context) error {
	students := m.db.Collection(collStudents)
	count, err := students.CountDocuments(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to count students: %w", err)
	}
	if count > 0 {
		return nil
	}

	samples := SampleStudents(m.now().UTC())
	docs := make([]interface{}, 0, len(samples))
	for _, s := range samples {
		docs = append(docs, studentDoc{StudentCertificate: *s})
	}
	if _, err := students.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert sample students: %w", err)
	}
	m.opts.Logger.Info("Sample student data initialized", zap.Int("count", len(docs)))
	return nil
}

// Disconnect closes the client
func (m *MongoStore) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client = nil
	m.db = nil
	if err == nil {
		m.opts.Logger.Info("Disconnected from MongoDB")
	}
	return err
}

// Ping implements Store
func (m *MongoStore) Ping(ctx context.Context) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil {
		return fmt.Errorf("mongo client disconnected")
	}
	return client.Ping(ctx, readpref.Primary())
}

func (m *MongoStore) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil, fmt.Errorf("mongo client disconnected")
	}
	return m.db.Collection(name), nil
}

// Students

func (m *MongoStore) findStudent(ctx context.Context, filter bson.D, op string) (*models.StudentCertificate, error) {
	coll, err := m.collection(ctx, collStudents)
	if err != nil {
		m.opts.Logger.Error(op, zap.Error(err))
		return nil, ErrNotFound
	}
	var doc studentDoc
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			m.opts.Logger.Error(op, zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return doc.model(), nil
}

// GetStudentByIDCard implements Store
func (m *MongoStore) GetStudentByIDCard(ctx context.Context, idCardNumber string) (*models.StudentCertificate, error) {
	return m.findStudent(ctx, bson.D{{Key: "idCardNumber", Value: NormalizeIDCard(idCardNumber)}}, "Error fetching student certificate")
}

// GetStudentByID implements Store
func (m *MongoStore) GetStudentByID(ctx context.Context, id string) (*models.StudentCertificate, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return m.findStudent(ctx, bson.D{{Key: "_id", Value: oid}}, "Error fetching student by ID")
}

// ListStudents implements Store
func (m *MongoStore) ListStudents(ctx context.Context) ([]*models.StudentCertificate, error) {
	out := []*models.StudentCertificate{}
	coll, err := m.collection(ctx, collStudents)
	if err != nil {
		m.opts.Logger.Error("Error listing students", zap.Error(err))
		return out, nil
	}

	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "studentName", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		m.opts.Logger.Error("Error listing students", zap.Error(err))
		return out, nil
	}
	var docs []studentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		m.opts.Logger.Error("Error listing students", zap.Error(err))
		return out, nil
	}
	for i := range docs {
		out = append(out, docs[i].model())
	}
	return out, nil
}

// IssueCertificate implements Store
func (m *MongoStore) IssueCertificate(ctx context.Context, cert *models.StudentCertificate) (*models.StudentCertificate, error) {
	coll, err := m.collection(ctx, collStudents)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	idCard := NormalizeIDCard(cert.IDCardNumber)

	set := bson.D{{Key: "updatedAt", Value: now}}
	for _, f := range []struct{ key, value string }{
		{"studentName", cert.StudentName},
		{"email", cert.Email},
		{"phone", cert.Phone},
		{"dateOfBirth", cert.DateOfBirth},
	} {
		if f.value != "" {
			set = append(set, bson.E{Key: f.key, Value: f.value})
		}
	}
	courses := cert.Courses
	if courses == nil {
		courses = []models.CourseCertificate{}
	}

	update := bson.D{
		{Key: "$set", Value: set},
		{Key: "$push", Value: bson.D{{Key: "courses", Value: bson.D{{Key: "$each", Value: courses}}}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: now}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc studentDoc
	err = coll.FindOneAndUpdate(ctx, bson.D{{Key: "idCardNumber", Value: idCard}}, update, opts).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateIDCard
		}
		return nil, fmt.Errorf("failed to issue certificate: %w", err)
	}
	return doc.model(), nil
}

// SubmitContactForm implements Store
func (m *MongoStore) SubmitContactForm(ctx context.Context, form *models.ContactSubmission) error {
	coll, err := m.collection(ctx, collContacts)
	if err != nil {
		return err
	}

	form.SubmittedAt = m.now().UTC()
	form.IsRead = false
	doc := contactDoc{ID: primitive.NewObjectID(), ContactSubmission: *form}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert contact submission: %w", err)
	}
	form.ID = doc.ID.Hex()
	return nil
}

// Registrations

// CreateRegistration implements Store
func (m *MongoStore) CreateRegistration(ctx context.Context, reg *models.CourseRegistration) error {
	coll, err := m.collection(ctx, collRegistrations)
	if err != nil {
		return err
	}

	now := m.now().UTC()
	if reg.ID == "" {
		reg.ID = NewRegistrationID(now)
	}
	reg.Status = models.StatusPending
	reg.SubmittedAt = now
	reg.UpdatedAt = now
	reg.VerifiedAt = nil
	reg.CertificateID = ""
	if reg.SelectedCourses == nil {
		reg.SelectedCourses = []string{}
	}

	if _, err := coll.InsertOne(ctx, reg); err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

// GetRegistration implements Store
func (m *MongoStore) GetRegistration(ctx context.Context, id string) (*models.CourseRegistration, error) {
	coll, err := m.collection(ctx, collRegistrations)
	if err != nil {
		m.opts.Logger.Error("Error fetching registration", zap.Error(err))
		return nil, ErrNotFound
	}
	var reg models.CourseRegistration
	if err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&reg); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			m.opts.Logger.Error("Error fetching registration", zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return &reg, nil
}

// GetAllRegistrations implements Store
func (m *MongoStore) GetAllRegistrations(ctx context.Context) ([]*models.CourseRegistration, error) {
	out := []*models.CourseRegistration{}
	coll, err := m.collection(ctx, collRegistrations)
	if err != nil {
		m.opts.Logger.Error("Error fetching registrations", zap.Error(err))
		return out, nil
	}

	sort := bson.D{{Key: "submittedAt", Value: -1}, {Key: "_id", Value: -1}}
	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(sort))
	if err != nil {
		m.opts.Logger.Error("Error fetching registrations", zap.Error(err))
		return out, nil
	}
	var regs []models.CourseRegistration
	if err := cursor.All(ctx, &regs); err != nil {
		m.opts.Logger.Error("Error fetching registrations", zap.Error(err))
		return out, nil
	}
	for i := range regs {
		out = append(out, &regs[i])
	}
	return out, nil
}

// UpdateRegistration implements Store. The registration is updated only if
// its status is unchanged since it was read; the derived certificate is then
// upserted and the status change is rolled back if that write fails.
func (m *MongoStore) UpdateRegistration(ctx context.Context, id string, update models.RegistrationUpdate) (*models.CourseRegistration, error) {
	regs, err := m.collection(ctx, collRegistrations)
	if err != nil {
		return nil, err
	}

	var reg models.CourseRegistration
	if err := regs.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&reg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}

	verifies, err := planUpdate(&reg, update)
	if err != nil {
		return nil, err
	}
	previous := reg.Clone()
	now := m.now().UTC()

	var derived *models.StudentCertificate
	if verifies {
		idCard, err := NewStudentIDCard(now)
		if err != nil {
			return nil, err
		}
		derived = DeriveCertificate(&reg, m.opts.Catalog, idCard, now)
		reg.CertificateID = derived.IDCardNumber
	}
	applyUpdate(&reg, update, now)

	filter := bson.D{{Key: "_id", Value: id}, {Key: "status", Value: previous.Status}}
	res, err := regs.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: registrationSet(&reg)}})
	if err != nil {
		return nil, fmt.Errorf("failed to update registration: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: registration changed concurrently", ErrInvalidTransition)
	}

	if derived != nil {
		if err := m.upsertDerived(ctx, derived, now); err != nil {
			restore := bson.D{
				{Key: "$set", Value: registrationSet(previous)},
				{Key: "$unset", Value: bson.D{{Key: "verifiedAt", Value: ""}, {Key: "certificateIdCard", Value: ""}}},
			}
			if _, rerr := regs.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, restore); rerr != nil {
				m.opts.Logger.Error("Failed to roll back registration status",
					zap.String("registration_id", id), zap.Error(rerr))
			}
			return nil, fmt.Errorf("failed to write derived certificate: %w", err)
		}
		m.opts.Logger.Info("Certificate issued for verified registration",
			zap.String("registration_id", id),
			zap.String("id_card_number", derived.IDCardNumber),
		)
	}

	return &reg, nil
}

func registrationSet(reg *models.CourseRegistration) bson.D {
	set := bson.D{
		{Key: "status", Value: reg.Status},
		{Key: "adminNotes", Value: reg.AdminNotes},
		{Key: "updatedAt", Value: reg.UpdatedAt},
	}
	if reg.VerifiedAt != nil {
		set = append(set, bson.E{Key: "verifiedAt", Value: *reg.VerifiedAt})
	}
	if reg.CertificateID != "" {
		set = append(set, bson.E{Key: "certificateIdCard", Value: reg.CertificateID})
	}
	return set
}

func (m *MongoStore) upsertDerived(ctx context.Context, cert *models.StudentCertificate, now time.Time) error {
	coll, err := m.collection(ctx, collStudents)
	if err != nil {
		return err
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "studentName", Value: cert.StudentName},
			{Key: "email", Value: cert.Email},
			{Key: "phone", Value: cert.Phone},
			{Key: "dateOfBirth", Value: cert.DateOfBirth},
			{Key: "courses", Value: cert.Courses},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: now}}},
	}
	_, err = coll.UpdateOne(ctx, bson.D{{Key: "idCardNumber", Value: cert.IDCardNumber}}, update, options.Update().SetUpsert(true))
	return err
}

// Admin users

// GetAdminUser implements Store
func (m *MongoStore) GetAdminUser(ctx context.Context, username string) (*models.AdminUser, error) {
	coll, err := m.collection(ctx, collAdminUsers)
	if err != nil {
		m.opts.Logger.Error("Error fetching admin user", zap.Error(err))
		return nil, ErrNotFound
	}
	var doc adminDoc
	filter := bson.D{{Key: "username", Value: username}, {Key: "isActive", Value: true}}
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			m.opts.Logger.Error("Error fetching admin user", zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return doc.model(), nil
}

// GetAllAdminUsers implements Store
func (m *MongoStore) GetAllAdminUsers(ctx context.Context) ([]*models.AdminUser, error) {
	out := []*models.AdminUser{}
	coll, err := m.collection(ctx, collAdminUsers)
	if err != nil {
		m.opts.Logger.Error("Error fetching admin users", zap.Error(err))
		return out, nil
	}

	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		m.opts.Logger.Error("Error fetching admin users", zap.Error(err))
		return out, nil
	}
	var docs []adminDoc
	if err := cursor.All(ctx, &docs); err != nil {
		m.opts.Logger.Error("Error fetching admin users", zap.Error(err))
		return out, nil
	}
	for i := range docs {
		out = append(out, docs[i].model())
	}
	return out, nil
}

// CreateAdminUser implements Store. The unique indexes on username and email
// are the final arbiter; the pre-checks only pick the more precise error.
func (m *MongoStore) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	coll, err := m.collection(ctx, collAdminUsers)
	if err != nil {
		return err
	}

	email := strings.TrimSpace(user.Email)
	if n, err := coll.CountDocuments(ctx, bson.D{{Key: "username", Value: user.Username}}); err == nil && n > 0 {
		return ErrDuplicateUsername
	}
	byEmail := options.Count().SetCollation(emailCollation)
	if n, err := coll.CountDocuments(ctx, bson.D{{Key: "email", Value: email}}, byEmail); err == nil && n > 0 {
		return ErrDuplicateEmail
	}

	now := m.now().UTC()
	created := user.Clone()
	created.Email = email
	created.IsActive = true
	created.CreatedAt = now
	created.UpdatedAt = now
	created.LastLogin = nil

	doc := adminDoc{ID: primitive.NewObjectID(), AdminUser: *created}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "email") {
				return ErrDuplicateEmail
			}
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert admin user: %w", err)
	}

	*user = *doc.model()
	return nil
}

// TouchAdminLogin implements Store
func (m *MongoStore) TouchAdminLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	coll, err := m.collection(ctx, collAdminUsers)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "lastLogin", Value: at.UTC()}}}})
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
