// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/EVE-University/unistudent/internal/app/store/audit"
	characterstore "github.com/EVE-University/unistudent/internal/app/store/characters"
	groupstore "github.com/EVE-University/unistudent/internal/app/store/groups"
	membershipstore "github.com/EVE-University/unistudent/internal/app/store/memberships"
	ownerstore "github.com/EVE-University/unistudent/internal/app/store/owners"
	selectedtitlestore "github.com/EVE-University/unistudent/internal/app/store/selectedtitles"
	syncrunstore "github.com/EVE-University/unistudent/internal/app/store/syncruns"
	titlestore "github.com/EVE-University/unistudent/internal/app/store/titles"
	tokenstore "github.com/EVE-University/unistudent/internal/app/store/tokens"
	userstore "github.com/EVE-University/unistudent/internal/app/store/users"
	"github.com/EVE-University/unistudent/internal/app/system/auditlog"
	"github.com/EVE-University/unistudent/internal/app/system/esi"
	"github.com/EVE-University/unistudent/internal/app/system/identity"
	"github.com/EVE-University/unistudent/internal/app/system/ssotoken"
	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"github.com/EVE-University/unistudent/internal/app/system/workers"
	titlesync "github.com/EVE-University/unistudent/internal/app/titlesync"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// services are the long-lived components built once in Startup and shared
// with BuildHandler and Shutdown.
type services struct {
	registry *prometheus.Registry

	owners     *ownerstore.Store
	users      *userstore.Store
	characters *characterstore.Store
	titles     *titlestore.Store
	mappings   *selectedtitlestore.Store
	groups     *groupstore.Store
	runs       *syncrunstore.Store
	events     *audit.Store
	audit      *auditlog.Logger

	engine  *titlesync.Engine
	sweeper *workers.Sweeper
}

var svc *services

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It wires
// the stores, the ESI client, the token and identity resolvers into the
// title sync engine and starts the background sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// esi_timeout sets the remote class; TIMEOUT_* variables override it.
	timeouts.Configure(timeouts.Config{Remote: appCfg.ESITimeout})
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("count", n))
	}

	s, err := buildServices(appCfg, deps, logger)
	if err != nil {
		return err
	}
	svc = s

	s.sweeper.Start()
	return nil
}

func buildServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	db := deps.MongoDatabase

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	esiMetrics, err := esi.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	syncMetrics, err := titlesync.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	s := &services{
		registry:   reg,
		owners:     ownerstore.New(db),
		users:      userstore.New(db),
		characters: characterstore.New(db),
		titles:     titlestore.New(db, logger),
		mappings:   selectedtitlestore.New(db),
		groups:     groupstore.New(db),
		runs:       syncrunstore.New(db),
		events:     audit.New(db),
	}
	s.audit = auditlog.New(s.events, logger, auditlog.Config{
		Sync:  appCfg.AuditLogSync,
		Admin: appCfg.AuditLogAdmin,
	})

	remote := esi.New(esi.Config{
		BaseURL:           appCfg.ESIBaseURL,
		CompatibilityDate: appCfg.ESICompatibilityDate,
		UserAgent:         appCfg.ESIUserAgent,
		RateLimit:         appCfg.ESIRateLimit,
		Burst:             appCfg.ESIRateBurst,
		Metrics:           esiMetrics,
	}, logger.Named("esi"))

	tokens := ssotoken.NewResolver(
		tokenstore.New(db),
		s.users,
		ssotoken.OAuthConfig(appCfg.SSOClientID, appCfg.SSOClientSecret, appCfg.SSOTokenURL),
		logger.Named("sso"),
	)

	s.engine = titlesync.New(titlesync.Deps{
		Remote:   remote,
		Tokens:   tokens,
		Identity: identity.New(s.users, s.characters),
		Owners:   s.owners,
		Titles:   s.titles,
		Mappings: s.mappings,
		Members:  membershipstore.New(db),
	}, logger.Named("titlesync"),
		titlesync.WithRunStore(s.runs),
		titlesync.WithAuditor(s.audit),
		titlesync.WithMetrics(syncMetrics),
		titlesync.WithWorkers(appCfg.SyncWorkers),
	)

	s.sweeper = workers.NewSweeper(s.engine, logger.Named("sweeper"), appCfg.SyncInterval, appCfg.SyncJitter, appCfg.SyncOnStartup)

	return s, nil
}
