package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/auth"
	"github.com/blazzica/marketplace-api/config"
	"github.com/blazzica/marketplace-api/handlers"
	"github.com/blazzica/marketplace-api/middleware"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/blazzica/marketplace-api/repositories/postgres"
	"github.com/blazzica/marketplace-api/repositories/tables"
	"github.com/blazzica/marketplace-api/services"
	"github.com/blazzica/marketplace-api/services/account"
	"github.com/blazzica/marketplace-api/services/admin"
	"github.com/blazzica/marketplace-api/services/audit"
	"github.com/blazzica/marketplace-api/services/booking"
	"github.com/blazzica/marketplace-api/services/catalog"
	"github.com/blazzica/marketplace-api/services/provider"
	"github.com/blazzica/marketplace-api/services/review"
	"github.com/blazzica/marketplace-api/supabase"
)

// auditStopTimeout bounds how long shutdown waits for queued audit writes
const auditStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	Logger   *zap.Logger
	Supabase *supabase.Client
	Factory  *postgres.RepositoryFactory // nil on the REST backend
	Repos    *repositories.Repositories

	// Auth
	Keys           *supabase.KeySetCache
	Verifier       *supabase.Verifier
	AuthMiddleware *middleware.AuthMiddleware
	AuthHandler    *auth.Handler

	// Audit trail; nil when disabled
	Audit *audit.AuditService

	// HTTP handlers
	Services  *handlers.ServiceHandler
	Bookings  *handlers.BookingHandler
	Providers *handlers.ProviderHandler
	Reviews   *handlers.ReviewHandler
	Admin     *handlers.AdminHandler
	Health    *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		Supabase: supabase.NewClient(supabase.ClientConfig{
			URL:     cfg.Supabase.URL,
			APIKey:  cfg.Supabase.Key,
			Timeout: cfg.Supabase.HTTPTimeout,
		}, logger),
	}

	ping, err := deps.initRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	deps.initAuth()

	recorder, err := deps.initAudit()
	if err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to start audit service: %w", err)
	}

	deps.initHandlers(recorder, ping)

	logger.Info("all dependencies initialized successfully",
		zap.String("data_backend", cfg.DataBackend),
		zap.Bool("audit", deps.Audit != nil))
	return deps, nil
}

// initRepositories selects the data backend and returns its health probe
func (d *Dependencies) initRepositories(ctx context.Context) (handlers.Check, error) {
	switch d.Config.DataBackend {
	case config.DataBackendPostgres:
		factory, err := postgres.NewRepositoryFactory(ctx, d.Config.Database, d.Logger)
		if err != nil {
			return nil, err
		}
		d.Factory = factory
		d.Repos = factory.NewRepositories()
		return factory.Store().Ping, nil
	default:
		store := supabase.NewTableClient(d.Supabase)
		d.Repos = tables.New(store, nil)
		return store.Ping, nil
	}
}

func (d *Dependencies) initAuth() {
	sb := d.Config.Supabase
	d.Keys = supabase.NewKeySetCache(supabase.KeySetCacheConfig{
		URL:                sb.JWKSURL(),
		APIKey:             sb.Key,
		RefreshInterval:    sb.JWKSRefreshInterval,
		MinRefreshInterval: sb.JWKSMinRefreshInterval,
		HTTPClient:         &http.Client{Timeout: sb.HTTPTimeout},
	}, d.Logger)
	d.Verifier = supabase.NewVerifier(d.Keys, supabase.VerifierConfig{
		Audience: sb.Audience,
		Issuer:   sb.Issuer,
		Leeway:   sb.ClockSkew,
	}, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Verifier, d.Logger)
	d.Logger.Info("token verifier initialized",
		zap.String("jwks_url", sb.JWKSURL()),
		zap.String("audience", sb.Audience))
}

func (d *Dependencies) initAudit() (services.Recorder, error) {
	if !d.Config.Audit.Enabled {
		d.Logger.Warn("audit trail disabled")
		return services.NopRecorder{}, nil
	}
	cfg := audit.DefaultConfig()
	cfg.BufferSize = d.Config.Audit.BufferSize
	cfg.WorkerCount = d.Config.Audit.WorkerCount

	svc := audit.NewAuditService(d.Repos.AuditLogs, d.Logger, cfg)
	if err := svc.Start(); err != nil {
		return nil, err
	}
	d.Audit = svc
	return svc, nil
}

func (d *Dependencies) initHandlers(recorder services.Recorder, ping handlers.Check) {
	accounts := account.NewService(supabase.NewAuthClient(d.Supabase), d.Repos.Users, recorder,
		d.Config.Supabase.PasswordResetRedirect, d.Logger)
	d.AuthHandler = auth.NewHandler(accounts, !d.Config.IsDevelopment(), d.Logger)

	d.Services = handlers.NewServiceHandler(catalog.NewService(d.Repos, recorder, d.Logger), d.Logger)
	d.Bookings = handlers.NewBookingHandler(booking.NewService(d.Repos, recorder, d.Logger), d.Logger)
	d.Providers = handlers.NewProviderHandler(provider.NewService(d.Repos, recorder, d.Logger), d.Logger)
	d.Reviews = handlers.NewReviewHandler(review.NewService(d.Repos, recorder, d.Logger), d.Logger)
	d.Admin = handlers.NewAdminHandler(admin.NewService(d.Repos, recorder, d.Logger), d.Logger)

	d.Health = handlers.NewHealthHandler(map[string]handlers.Check{
		"table_store": ping,
		"jwks":        d.Keys.Ready,
	}, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Audit != nil {
		timeout := auditStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		} else {
			stats := d.Audit.GetStats()
			d.Logger.Info("audit service stopped", zap.Any("stats", stats))
		}
	}

	if d.Keys != nil {
		d.Logger.Info("jwks cache state", zap.Any("stats", d.Keys.Stats()))
	}

	if d.Factory != nil {
		stats := d.Factory.Stats()
		d.Logger.Info("database pool state",
			zap.Int("open_connections", stats.OpenConnections),
			zap.Int64("wait_count", stats.WaitCount))
		if err := d.Factory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
