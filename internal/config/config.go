// Package config provides configuration management for the institute API.
// It handles loading configuration from YAML files, applying environment variable
// and command line overrides, and validating values for the server, storage backend,
// tokens, document encryption, logging, CORS, notifications and the public site.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Crypto   CryptoConfig   `yaml:"crypto"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
	Notify   NotifyConfig   `yaml:"notify"`
	Site     SiteConfig     `yaml:"site"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled"`
	TLSCert      string        `yaml:"tls_cert"`
	TLSKey       string        `yaml:"tls_key"`
}

// DatabaseConfig selects and configures the storage backend
type DatabaseConfig struct {
	Type           string         `yaml:"type"`
	SeedSampleData bool           `yaml:"seed_sample_data"`
	SQLite         SQLiteConfig   `yaml:"sqlite"`
	Postgres       PostgresConfig `yaml:"postgres"`
	Mongo          MongoConfig    `yaml:"mongo"`
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// MongoConfig holds MongoDB-specific configuration
type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// JWTConfig holds token configuration for admin and student sessions
type JWTConfig struct {
	Secret            string        `yaml:"secret"`
	Expiration        time.Duration `yaml:"expiration"`
	StudentExpiration time.Duration `yaml:"student_expiration"`
	Issuer            string        `yaml:"issuer"`
}

// CryptoConfig holds the key used to seal uploaded identity documents
type CryptoConfig struct {
	DocumentKey string `yaml:"document_key"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSEnabled bool     `yaml:"cors_enabled"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// NotifyConfig holds applicant e-mail notification settings
type NotifyConfig struct {
	Enabled        bool   `yaml:"enabled"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
}

// SiteConfig describes the public website the API serves
type SiteConfig struct {
	PublicURL  string `yaml:"public_url"`
	QRCodeSize int    `yaml:"qr_code_size"`
}

// VerificationURL is the public page showing the certificate of an ID card.
// QR codes and notification e-mails both link here.
func (s SiteConfig) VerificationURL(idCardNumber string) string {
	id := strings.ToUpper(strings.TrimSpace(idCardNumber))
	return strings.TrimRight(s.PublicURL, "/") + "/verify?id=" + url.QueryEscape(id)
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Type:           "memory",
			SeedSampleData: true,
			SQLite: SQLiteConfig{
				Path: "./data/eliedu.db",
			},
			Postgres: PostgresConfig{
				Port:         5432,
				SSLMode:      "disable",
				MaxOpenConns: 1,
				MaxIdleConns: 1,
			},
			Mongo: MongoConfig{
				Database:       "european_languages_db",
				ConnectTimeout: 2 * time.Minute,
			},
		},
		JWT: JWTConfig{
			Expiration:        24 * time.Hour,
			StudentExpiration: 12 * time.Hour,
			Issuer:            "eliedu",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			CORSEnabled: true,
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Notify: NotifyConfig{
			FromAddress: "info@europelanguages.ae",
			FromName:    "European Language Institute",
		},
		Site: SiteConfig{
			PublicURL:  "http://localhost:5173",
			QRCodeSize: 256,
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load reads the configuration file and applies env and flag overrides.
// Priority, highest first: flags, environment, file, defaults.
func Load(path string, flags *Flags) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if flags != nil {
		if err := cfg.applyFlagOverrides(flags); err != nil {
			return nil, fmt.Errorf("invalid flag value: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("ELI_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("ELI_SERVER_HOST"); host != "" {
		c.Server.Host = host
	}

	if dbType := os.Getenv("ELI_DB_TYPE"); dbType != "" {
		c.Database.Type = dbType
	}
	if seed := os.Getenv("ELI_DB_SEED_SAMPLE_DATA"); seed != "" {
		if b, err := strconv.ParseBool(seed); err == nil {
			c.Database.SeedSampleData = b
		}
	}
	if dbPath := os.Getenv("ELI_DB_SQLITE_PATH"); dbPath != "" {
		c.Database.SQLite.Path = dbPath
	}
	if pgHost := os.Getenv("ELI_DB_POSTGRES_HOST"); pgHost != "" {
		c.Database.Postgres.Host = pgHost
	}
	if pgPort := os.Getenv("ELI_DB_POSTGRES_PORT"); pgPort != "" {
		if p, err := strconv.Atoi(pgPort); err == nil {
			c.Database.Postgres.Port = p
		}
	}
	if pgDB := os.Getenv("ELI_DB_POSTGRES_DATABASE"); pgDB != "" {
		c.Database.Postgres.Database = pgDB
	}
	if pgUser := os.Getenv("ELI_DB_POSTGRES_USER"); pgUser != "" {
		c.Database.Postgres.User = pgUser
	}
	if pgPass := os.Getenv("ELI_DB_POSTGRES_PASSWORD"); pgPass != "" {
		c.Database.Postgres.Password = pgPass
	}
	// MONGODB_URL is what the previous deployment exported
	if uri := os.Getenv("MONGODB_URL"); uri != "" {
		c.Database.Mongo.URI = uri
	}
	if uri := os.Getenv("ELI_DB_MONGO_URI"); uri != "" {
		c.Database.Mongo.URI = uri
	}
	if mdb := os.Getenv("ELI_DB_MONGO_DATABASE"); mdb != "" {
		c.Database.Mongo.Database = mdb
	}

	if jwtSecret := os.Getenv("ELI_JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}

	if key := os.Getenv("ELI_DOCUMENT_KEY"); key != "" {
		c.Crypto.DocumentKey = key
	}

	if logLevel := os.Getenv("ELI_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if apiKey := os.Getenv("ELI_SENDGRID_API_KEY"); apiKey != "" {
		c.Notify.SendGridAPIKey = apiKey
	}

	if publicURL := os.Getenv("ELI_SITE_PUBLIC_URL"); publicURL != "" {
		c.Site.PublicURL = publicURL
	}
}

// applyFlagOverrides applies command line flags that were explicitly set
func (c *Config) applyFlagOverrides(f *Flags) error {
	if v, ok := f.GetServerPort(); ok {
		c.Server.Port = v
	}
	if v, ok := f.GetServerHost(); ok {
		c.Server.Host = v
	}
	if v, ok := f.GetServerReadTimeout(); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("server.read-timeout: %w", err)
		}
		c.Server.ReadTimeout = d
	}
	if v, ok := f.GetServerWriteTimeout(); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("server.write-timeout: %w", err)
		}
		c.Server.WriteTimeout = d
	}
	if v, ok := f.GetServerTLSEnabled(); ok {
		c.Server.TLSEnabled = v
	}
	if v, ok := f.GetServerTLSCert(); ok {
		c.Server.TLSCert = v
	}
	if v, ok := f.GetServerTLSKey(); ok {
		c.Server.TLSKey = v
	}

	if v, ok := f.GetDBType(); ok {
		c.Database.Type = v
	}
	if v, ok := f.GetDBSeedSampleData(); ok {
		c.Database.SeedSampleData = v
	}
	if v, ok := f.GetDBSQLitePath(); ok {
		c.Database.SQLite.Path = v
	}
	if v, ok := f.GetDBPostgresHost(); ok {
		c.Database.Postgres.Host = v
	}
	if v, ok := f.GetDBPostgresPort(); ok {
		c.Database.Postgres.Port = v
	}
	if v, ok := f.GetDBPostgresDatabase(); ok {
		c.Database.Postgres.Database = v
	}
	if v, ok := f.GetDBPostgresUser(); ok {
		c.Database.Postgres.User = v
	}
	if v, ok := f.GetDBPostgresPassword(); ok {
		c.Database.Postgres.Password = v
	}
	if v, ok := f.GetDBPostgresSSLMode(); ok {
		c.Database.Postgres.SSLMode = v
	}
	if v, ok := f.GetDBMongoURI(); ok {
		c.Database.Mongo.URI = v
	}
	if v, ok := f.GetDBMongoDatabase(); ok {
		c.Database.Mongo.Database = v
	}

	if v, ok := f.GetJWTSecret(); ok {
		c.JWT.Secret = v
	}
	if v, ok := f.GetJWTExpiration(); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("jwt.expiration: %w", err)
		}
		c.JWT.Expiration = d
	}
	if v, ok := f.GetJWTIssuer(); ok {
		c.JWT.Issuer = v
	}

	if v, ok := f.GetLogLevel(); ok {
		c.Logging.Level = v
	}
	if v, ok := f.GetLogFormat(); ok {
		c.Logging.Format = v
	}

	if v, ok := f.GetSecurityCORSEnabled(); ok {
		c.Security.CORSEnabled = v
	}
	if v, ok := f.GetSecurityCORSOrigins(); ok {
		c.Security.CORSOrigins = v
	}

	if v, ok := f.GetNotifyEnabled(); ok {
		c.Notify.Enabled = v
	}
	if v, ok := f.GetSitePublicURL(); ok {
		c.Site.PublicURL = v
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.TLSEnabled {
		if c.Server.TLSCert == "" || c.Server.TLSKey == "" {
			return fmt.Errorf("TLS enabled but cert or key not specified")
		}
	}

	switch c.Database.Type {
	case "memory":
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("SQLite path not specified")
		}
	case "postgres":
		if c.Database.Postgres.Host == "" || c.Database.Postgres.Database == "" {
			return fmt.Errorf("PostgreSQL host and database must be specified")
		}
	case "mongo":
		if c.Database.Mongo.URI == "" || c.Database.Mongo.Database == "" {
			return fmt.Errorf("MongoDB uri and database must be specified")
		}
	default:
		return fmt.Errorf("invalid database type: %s (must be 'memory', 'sqlite', 'postgres' or 'mongo')", c.Database.Type)
	}

	if c.Crypto.DocumentKey != "" {
		key, err := hex.DecodeString(c.Crypto.DocumentKey)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("document key must be 64 hex characters")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Notify.Enabled && c.Notify.SendGridAPIKey == "" {
		return fmt.Errorf("notifications enabled but SendGrid API key not specified")
	}

	if c.Site.QRCodeSize < 64 || c.Site.QRCodeSize > 1024 {
		return fmt.Errorf("invalid QR code size: %d", c.Site.QRCodeSize)
	}

	return nil
}

// GetDSN returns the database connection string based on the configured type
func (c *Config) GetDSN() string {
	switch c.Database.Type {
	case "sqlite":
		return c.Database.SQLite.Path
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Postgres.Host,
			c.Database.Postgres.Port,
			c.Database.Postgres.User,
			c.Database.Postgres.Password,
			c.Database.Postgres.Database,
			c.Database.Postgres.SSLMode,
		)
	case "mongo":
		return c.Database.Mongo.URI
	default:
		return ""
	}
}

// DocumentKeyBytes returns the decoded document sealing key, or nil when unset
func (c *Config) DocumentKeyBytes() []byte {
	if c.Crypto.DocumentKey == "" {
		return nil
	}
	key, err := hex.DecodeString(c.Crypto.DocumentKey)
	if err != nil {
		return nil
	}
	return key
}
