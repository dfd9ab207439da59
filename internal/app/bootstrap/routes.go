// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	adminfeature "github.com/EVE-University/unistudent/internal/app/features/admin"
	healthfeature "github.com/EVE-University/unistudent/internal/app/features/health"
	statusfeature "github.com/EVE-University/unistudent/internal/app/features/status"
	"github.com/EVE-University/unistudent/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var errNotStarted = errors.New("bootstrap: Startup has not run")

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. Routes:
//   - /health   Mongo ping, unauthenticated
//   - /metrics  Prometheus, unauthenticated
//   - /status   credential owner listing, admin token
//   - /admin/*  operator API, admin token
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		return nil, errNotStarted
	}
	return newRouter(svc, appCfg, deps, logger), nil
}

func newRouter(s *services, appCfg AppConfig, deps DBDeps, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	// Owner listing
	statusHandler := statusfeature.NewHandler(s.owners, s.users, s.characters, logger)
	r.Mount("/status", auth.RequireAdmin(appCfg.AdminToken, logger)(statusfeature.Routes(statusHandler)))

	// Operator API
	adminHandler := adminfeature.NewHandler(adminfeature.Deps{
		Sweeper:  s.engine,
		Titles:   s.titles,
		Mappings: s.mappings,
		Groups:   s.groups,
		Runs:     s.runs,
		Owners:   s.owners,
		Users:    s.users,
		Audit:    s.audit,
		Events:   s.events,
	}, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, appCfg.AdminToken))

	return r
}
