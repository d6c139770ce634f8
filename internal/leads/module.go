// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route
// registration.
package leads

import (
	"context"

	"realestate_crm_backend/internal/events"
	apphttp "realestate_crm_backend/internal/http"
	"realestate_crm_backend/internal/leads/handler"
	"realestate_crm_backend/internal/leads/repository"
	"realestate_crm_backend/internal/leads/scoring"
	"realestate_crm_backend/internal/leads/service"
	"realestate_crm_backend/internal/properties"
	"realestate_crm_backend/platform/config"
	"realestate_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its
// dependencies. rdb may be nil, in which case the property snapshot is read
// straight from the database on every scoring pass.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, eventBus events.Bus, cfg *config.Config, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)

	engine, err := scoring.NewEngineFromConfig(cfg, log)
	if err != nil {
		return nil, err
	}

	var snapshots properties.SnapshotProvider = properties.NewRepository(pool)
	if rdb != nil && cfg.IsSnapshotCacheEnabled() {
		snapshots = properties.NewCachedProvider(snapshots, rdb, cfg.GetSnapshotCacheTTL(), log)
	}

	svc := service.New(repo, engine, snapshots, eventBus, log)

	// Surface top-tier rescores in the logs so agents can be nudged quickly.
	eventBus.Subscribe(events.LeadScoreRecalculated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadScoreRecalculated)
		if !ok {
			return nil
		}
		if e.NewScore >= 80 && e.OldScore < 80 {
			log.Info("lead crossed into hot tier", "leadId", e.LeadID, "score", e.NewScore, "quality", e.Quality)
		}
		return nil
	}))

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for external use (scheduler, tests).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication.
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
