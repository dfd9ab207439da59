// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/EVE-University/unistudent/internal/app/system/esi"
	"github.com/EVE-University/unistudent/internal/app/system/ssotoken"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for unistudent.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, sync_interval, etc.
//   - Environment variables: UNISTUDENT_MONGO_URI, UNISTUDENT_SYNC_INTERVAL, etc.
//   - Command-line flags: --mongo_uri, --sync_interval, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "unistudent", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 50, Desc: "MongoDB max connection pool size (default: 50)"},
	{Name: "mongo_min_pool_size", Default: 2, Desc: "MongoDB min connection pool size (default: 2)"},

	// ESI
	{Name: "esi_base_url", Default: esi.DefaultBaseURL, Desc: "ESI base URL"},
	{Name: "esi_compatibility_date", Default: esi.DefaultCompatibilityDate, Desc: "Value of the X-Compatibility-Date header"},
	{Name: "esi_user_agent", Default: esi.DefaultUserAgent, Desc: "User-Agent sent to ESI (include contact details)"},
	{Name: "esi_rate_limit", Default: "10", Desc: "ESI requests per second across all calls (0 disables)"},
	{Name: "esi_rate_burst", Default: 5, Desc: "ESI limiter burst"},
	{Name: "esi_timeout", Default: "20s", Desc: "Timeout for a single ESI call"},

	// EVE SSO
	{Name: "sso_client_id", Default: "", Desc: "EVE SSO application client ID"},
	{Name: "sso_client_secret", Default: "", Desc: "EVE SSO application secret key"},
	{Name: "sso_token_url", Default: ssotoken.DefaultTokenURL, Desc: "EVE SSO token endpoint"},

	// Sweep schedule
	{Name: "sync_interval", Default: "1h", Desc: "Time between title sweeps"},
	{Name: "sync_jitter", Default: "5m", Desc: "Random offset applied to each sweep wait (plus or minus)"},
	{Name: "sync_workers", Default: 1, Desc: "Corporations synced concurrently during a sweep"},
	{Name: "sync_on_startup", Default: false, Desc: "Run a sweep immediately at startup"},

	// Admin API
	{Name: "admin_token", Default: "", Desc: "Bearer token for /admin (blank disables the admin API)"},

	// Audit logging settings
	{Name: "audit_log_sync", Default: "all", Desc: "Sync event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, UNISTUDENT_* for app) and
// flags with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "UNISTUDENT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		ESIBaseURL:           appValues.String("esi_base_url"),
		ESICompatibilityDate: appValues.String("esi_compatibility_date"),
		ESIUserAgent:         appValues.String("esi_user_agent"),
		ESIRateBurst:         appValues.Int("esi_rate_burst"),
		ESITimeout:           appValues.Duration("esi_timeout", 20*time.Second),

		SSOClientID:     appValues.String("sso_client_id"),
		SSOClientSecret: appValues.String("sso_client_secret"),
		SSOTokenURL:     appValues.String("sso_token_url"),

		SyncInterval:  appValues.Duration("sync_interval", time.Hour),
		SyncJitter:    appValues.Duration("sync_jitter", 5*time.Minute),
		SyncWorkers:   appValues.Int("sync_workers"),
		SyncOnStartup: appValues.Bool("sync_on_startup"),

		AdminToken: appValues.String("admin_token"),

		AuditLogSync:  appValues.String("audit_log_sync"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	rate, err := parseRate(appValues.String("esi_rate_limit"))
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg.ESIRateLimit = rate

	return coreCfg, appCfg, nil
}

func parseRate(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("esi_rate_limit %q: %w", s, err)
	}
	return v, nil
}

var validAuditSettings = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked before any connection is attempted.
// SSO credentials are required because every remote call needs a
// refreshed grant.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.SSOClientID == "" || appCfg.SSOClientSecret == "" {
		return errors.New("sso_client_id and sso_client_secret are required")
	}
	if appCfg.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive, got %s", appCfg.SyncInterval)
	}
	if appCfg.SyncJitter < 0 {
		return fmt.Errorf("sync_jitter must not be negative, got %s", appCfg.SyncJitter)
	}
	if appCfg.SyncWorkers < 1 {
		return fmt.Errorf("sync_workers must be at least 1, got %d", appCfg.SyncWorkers)
	}
	if appCfg.ESIRateLimit < 0 {
		return fmt.Errorf("esi_rate_limit must not be negative, got %g", appCfg.ESIRateLimit)
	}
	if !validAuditSettings[appCfg.AuditLogSync] {
		return fmt.Errorf("audit_log_sync must be one of all, db, log, off; got %q", appCfg.AuditLogSync)
	}
	if !validAuditSettings[appCfg.AuditLogAdmin] {
		return fmt.Errorf("audit_log_admin must be one of all, db, log, off; got %q", appCfg.AuditLogAdmin)
	}
	if appCfg.AdminToken == "" {
		logger.Warn("admin_token is empty; /admin is disabled")
	}
	return nil
}
