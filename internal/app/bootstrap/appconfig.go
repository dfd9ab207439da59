// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and request limits.
// Everything below is specific to the title sync service and is loaded
// in LoadConfig from files, UNISTUDENT_* environment variables, or flags.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// ESI (remote authority API)
	ESIBaseURL           string
	ESICompatibilityDate string
	ESIUserAgent         string
	ESIRateLimit         float64 // requests per second, 0 disables limiting
	ESIRateBurst         int
	ESITimeout           time.Duration

	// EVE SSO application credentials used to refresh stored grants
	SSOClientID     string
	SSOClientSecret string
	SSOTokenURL     string

	// Sweep schedule
	SyncInterval  time.Duration
	SyncJitter    time.Duration
	SyncWorkers   int
	SyncOnStartup bool

	// AdminToken guards /admin. Empty disables the admin API.
	AdminToken string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogSync  string
	AuditLogAdmin string
}
