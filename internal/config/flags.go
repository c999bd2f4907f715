package config

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// Flags holds all command line flag values
type Flags struct {
	fs *flag.FlagSet

	// General
	configFile *string
	envFile    *string
	version    *bool

	// Server
	serverPort         *int
	serverHost         *string
	serverReadTimeout  *string
	serverWriteTimeout *string
	serverTLSEnabled   *bool
	serverTLSCert      *string
	serverTLSKey       *string

	// Database
	dbType             *string
	dbSeedSampleData   *bool
	dbSQLitePath       *string
	dbPostgresHost     *string
	dbPostgresPort     *int
	dbPostgresDatabase *string
	dbPostgresUser     *string
	dbPostgresPassword *string
	dbPostgresSSLMode  *string
	dbMongoURI         *string
	dbMongoDatabase    *string

	// JWT
	jwtSecret     *string
	jwtExpiration *string
	jwtIssuer     *string

	// Logging
	logLevel  *string
	logFormat *string

	// Security
	securityCORSEnabled *bool
	securityCORSOrigins *[]string

	// Notifications and site
	notifyEnabled *bool
	sitePublicURL *string
}

// NewFlags defines every flag on fs
func NewFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}

	f.configFile = fs.StringP("config", "c", "config.yaml", "Path to configuration file")
	f.envFile = fs.String("env-file", ".env", "Path to a .env file loaded before reading the environment")
	f.version = fs.BoolP("version", "v", false, "Print version and exit")

	f.serverPort = fs.Int("server.port", 0, "HTTP server port")
	f.serverHost = fs.String("server.host", "", "HTTP server bind address")
	f.serverReadTimeout = fs.String("server.read-timeout", "", "Server read timeout (e.g., 30s)")
	f.serverWriteTimeout = fs.String("server.write-timeout", "", "Server write timeout (e.g., 30s)")
	f.serverTLSEnabled = fs.Bool("server.tls-enabled", false, "Enable HTTPS")
	f.serverTLSCert = fs.String("server.tls-cert", "", "Path to TLS certificate")
	f.serverTLSKey = fs.String("server.tls-key", "", "Path to TLS key")

	f.dbType = fs.String("db.type", "", "Storage backend (memory, sqlite, postgres or mongo)")
	f.dbSeedSampleData = fs.Bool("db.seed-sample-data", false, "Seed sample students on first connect")
	f.dbSQLitePath = fs.String("db.sqlite.path", "", "SQLite database file path")
	f.dbPostgresHost = fs.String("db.postgres.host", "", "PostgreSQL host")
	f.dbPostgresPort = fs.Int("db.postgres.port", 0, "PostgreSQL port")
	f.dbPostgresDatabase = fs.String("db.postgres.database", "", "PostgreSQL database name")
	f.dbPostgresUser = fs.String("db.postgres.user", "", "PostgreSQL user")
	f.dbPostgresPassword = fs.String("db.postgres.password", "", "PostgreSQL password")
	f.dbPostgresSSLMode = fs.String("db.postgres.ssl-mode", "", "PostgreSQL SSL mode")
	f.dbMongoURI = fs.String("db.mongo.uri", "", "MongoDB connection URI")
	f.dbMongoDatabase = fs.String("db.mongo.database", "", "MongoDB database name")

	f.jwtSecret = fs.String("jwt.secret", "", "JWT secret key")
	f.jwtExpiration = fs.String("jwt.expiration", "", "Admin token lifetime (e.g., 24h)")
	f.jwtIssuer = fs.String("jwt.issuer", "", "JWT issuer")

	f.logLevel = fs.StringP("log.level", "l", "", "Log level (debug, info, warn, error)")
	f.logFormat = fs.String("log.format", "", "Log format (json or console)")

	f.securityCORSEnabled = fs.Bool("security.cors-enabled", false, "Enable CORS")
	f.securityCORSOrigins = fs.StringSlice("security.cors-origins", nil, "CORS allowed origins (can be specified multiple times)")

	f.notifyEnabled = fs.Bool("notify.enabled", false, "Send applicant e-mails on registration status changes")
	f.sitePublicURL = fs.String("site.public-url", "", "Public website URL used in QR codes and e-mails")

	return f
}

// ParseFlags defines and parses all command line flags from os.Args
func ParseFlags() (*Flags, string, bool) {
	fs := flag.CommandLine
	f := NewFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "European Language Institute API - certificates, registrations and admin back office\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfiguration priority (highest to lowest):\n")
		fmt.Fprintf(os.Stderr, "  1. Command line flags\n")
		fmt.Fprintf(os.Stderr, "  2. Environment variables (ELI_*, also read from --env-file)\n")
		fmt.Fprintf(os.Stderr, "  3. Configuration file (default: config.yaml)\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  # Keep everything in memory\n")
		fmt.Fprintf(os.Stderr, "  %s --db.type memory\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Use MongoDB\n")
		fmt.Fprintf(os.Stderr, "  %s --db.type mongo --db.mongo.uri mongodb://localhost:27017\n\n", os.Args[0])
	}

	_ = fs.Parse(os.Args[1:])

	return f, *f.configFile, *f.version
}

func (f *Flags) changed(name string) bool {
	fl := f.fs.Lookup(name)
	return fl != nil && fl.Changed
}

// EnvFile returns the .env path to load
func (f *Flags) EnvFile() string {
	return *f.envFile
}

// GetServerPort returns the server port flag value and whether it was set
func (f *Flags) GetServerPort() (int, bool) {
	return *f.serverPort, f.changed("server.port")
}

// GetServerHost returns the server host flag value and whether it was set
func (f *Flags) GetServerHost() (string, bool) {
	return *f.serverHost, f.changed("server.host")
}

// GetServerReadTimeout returns the server read timeout flag value and whether it was set
func (f *Flags) GetServerReadTimeout() (string, bool) {
	return *f.serverReadTimeout, f.changed("server.read-timeout")
}

// GetServerWriteTimeout returns the server write timeout flag value and whether it was set
func (f *Flags) GetServerWriteTimeout() (string, bool) {
	return *f.serverWriteTimeout, f.changed("server.write-timeout")
}

// GetServerTLSEnabled returns the server TLS enabled flag value and whether it was set
func (f *Flags) GetServerTLSEnabled() (bool, bool) {
	return *f.serverTLSEnabled, f.changed("server.tls-enabled")
}

// GetServerTLSCert returns the server TLS cert flag value and whether it was set
func (f *Flags) GetServerTLSCert() (string, bool) {
	return *f.serverTLSCert, f.changed("server.tls-cert")
}

// GetServerTLSKey returns the server TLS key flag value and whether it was set
func (f *Flags) GetServerTLSKey() (string, bool) {
	return *f.serverTLSKey, f.changed("server.tls-key")
}

// GetDBType returns the storage backend flag value and whether it was set
func (f *Flags) GetDBType() (string, bool) {
	return *f.dbType, f.changed("db.type")
}

// GetDBSeedSampleData returns the seeding flag value and whether it was set
func (f *Flags) GetDBSeedSampleData() (bool, bool) {
	return *f.dbSeedSampleData, f.changed("db.seed-sample-data")
}

// GetDBSQLitePath returns the SQLite path flag value and whether it was set
func (f *Flags) GetDBSQLitePath() (string, bool) {
	return *f.dbSQLitePath, f.changed("db.sqlite.path")
}

// GetDBPostgresHost returns the PostgreSQL host flag value and whether it was set
func (f *Flags) GetDBPostgresHost() (string, bool) {
	return *f.dbPostgresHost, f.changed("db.postgres.host")
}

// GetDBPostgresPort returns the PostgreSQL port flag value and whether it was set
func (f *Flags) GetDBPostgresPort() (int, bool) {
	return *f.dbPostgresPort, f.changed("db.postgres.port")
}

// GetDBPostgresDatabase returns the PostgreSQL database flag value and whether it was set
func (f *Flags) GetDBPostgresDatabase() (string, bool) {
	return *f.dbPostgresDatabase, f.changed("db.postgres.database")
}

// GetDBPostgresUser returns the PostgreSQL user flag value and whether it was set
func (f *Flags) GetDBPostgresUser() (string, bool) {
	return *f.dbPostgresUser, f.changed("db.postgres.user")
}

// GetDBPostgresPassword returns the PostgreSQL password flag value and whether it was set
func (f *Flags) GetDBPostgresPassword() (string, bool) {
	return *f.dbPostgresPassword, f.changed("db.postgres.password")
}

// GetDBPostgresSSLMode returns the PostgreSQL SSL mode flag value and whether it was set
func (f *Flags) GetDBPostgresSSLMode() (string, bool) {
	return *f.dbPostgresSSLMode, f.changed("db.postgres.ssl-mode")
}

// GetDBMongoURI returns the MongoDB URI flag value and whether it was set
func (f *Flags) GetDBMongoURI() (string, bool) {
	return *f.dbMongoURI, f.changed("db.mongo.uri")
}

// GetDBMongoDatabase returns the MongoDB database flag value and whether it was set
func (f *Flags) GetDBMongoDatabase() (string, bool) {
	return *f.dbMongoDatabase, f.changed("db.mongo.database")
}

// GetJWTSecret returns the JWT secret flag value and whether it was set
func (f *Flags) GetJWTSecret() (string, bool) {
	return *f.jwtSecret, f.changed("jwt.secret")
}

// GetJWTExpiration returns the JWT expiration flag value and whether it was set
func (f *Flags) GetJWTExpiration() (string, bool) {
	return *f.jwtExpiration, f.changed("jwt.expiration")
}

// GetJWTIssuer returns the JWT issuer flag value and whether it was set
func (f *Flags) GetJWTIssuer() (string, bool) {
	return *f.jwtIssuer, f.changed("jwt.issuer")
}

// GetLogLevel returns the log level flag value and whether it was set
func (f *Flags) GetLogLevel() (string, bool) {
	return *f.logLevel, f.changed("log.level")
}

// GetLogFormat returns the log format flag value and whether it was set
func (f *Flags) GetLogFormat() (string, bool) {
	return *f.logFormat, f.changed("log.format")
}

// GetSecurityCORSEnabled returns the CORS enabled flag value and whether it was set
func (f *Flags) GetSecurityCORSEnabled() (bool, bool) {
	return *f.securityCORSEnabled, f.changed("security.cors-enabled")
}

// GetSecurityCORSOrigins returns the CORS origins flag value and whether it was set
func (f *Flags) GetSecurityCORSOrigins() ([]string, bool) {
	return *f.securityCORSOrigins, f.changed("security.cors-origins")
}

// GetNotifyEnabled returns the notification flag value and whether it was set
func (f *Flags) GetNotifyEnabled() (bool, bool) {
	return *f.notifyEnabled, f.changed("notify.enabled")
}

// GetSitePublicURL returns the public site URL flag value and whether it was set
func (f *Flags) GetSitePublicURL() (string, bool) {
	return *f.sitePublicURL, f.changed("site.public-url")
}
