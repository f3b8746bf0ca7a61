// Package app wires the datagate server runtime: config, logging, metrics,
// HTTP routes, and the expiry reaper.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	accessapi "datagate/cmd/internal/access/api"
	"datagate/cmd/internal/access/credential"
	"datagate/cmd/internal/access/grant"
	"datagate/cmd/internal/contributor"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// App is the datagate server runtime.
type App struct {
	cfg Config
	log Logger

	store     Store
	dbPool    *pgxpool.Pool
	dbEnabled bool

	registry *prometheus.Registry

	grants  *grant.Service
	rotator *credential.Rotator
	reaper  *grant.Reaper
	api     *accessapi.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	registry := NewMetricsRegistry()
	grantMetrics := grant.NewMetrics(registry)

	rotations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "datagate",
		Subsystem: "credentials",
		Name:      "rotations_total",
		Help:      "Number of successful client secret rotations.",
	})
	registry.MustRegister(rotations)

	deps, err := newStores(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	grants, err := grant.NewService(cfg.GrantConfig(), deps.grants, deps.apps, deps.mirror, grantMetrics)
	if err != nil {
		deps.close()
		return nil, err
	}
	rotator, err := credential.NewRotator(cfg.CredentialConfig(), deps.apps, deps.secrets, deps.mirror,
		credential.WithRotationCounter(rotations))
	if err != nil {
		deps.close()
		return nil, err
	}
	apiHandler, err := accessapi.NewHandler(log, cfg.APIConfig(), grants, rotator)
	if err != nil {
		deps.close()
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     deps.store,
		dbPool:    deps.pool,
		dbEnabled: deps.pool != nil,
		registry:  registry,
		grants:    grants,
		rotator:   rotator,
		reaper:    grant.NewReaper(deps.grants, cfg.GrantSweepInterval, log, grantMetrics),
		api:       apiHandler,
	}, nil
}

// Run starts the reaper and the HTTP server, and blocks until context
// cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.registry, a.api)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		a.reaper.Run(reaperCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		if runErr == nil {
			runErr = err
		}
	}

	stopReaper()
	select {
	case <-reaperDone:
	case <-shutdownCtx.Done():
		a.log.Error("reaper.shutdown.timeout")
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	if runErr != nil {
		return runErr
	}
	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// stores bundles the persistence dependencies of the access services.
type stores struct {
	store Store
	pool  *pgxpool.Pool

	apps    contributor.Store
	grants  grant.Store
	secrets credential.Store
	mirror  credential.Mirror
}

func (d stores) close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

// newStores decides between Postgres-backed persistence and the in-memory
// dev store.
func newStores(ctx context.Context, cfg Config, log Logger) (stores, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")

		apps := contributor.NewMemoryStore()
		if id := cfg.DevContributorID; id != "" {
			apps.Put(contributor.Application{
				UserID:   id,
				ClientID: uuid.NewString(),
				Status:   contributor.StatusAccepted,
			})
			log.Info("dev.contributor.seeded", "user_id", id)
		}

		return stores{
			store:   nopStore{},
			apps:    apps,
			grants:  grant.NewMemoryStore(),
			secrets: credential.NewMemoryStore(),
			mirror:  credential.NewMemoryMirror(),
		}, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return stores{}, err
	}
	log.Info("db.enabled.postgres_store")

	return stores{
		store:   dbStore{pool: pool},
		pool:    pool,
		apps:    contributor.NewPostgresStore(pool),
		grants:  grant.NewPostgresStore(pool),
		secrets: credential.NewPostgresStore(pool),
		mirror:  credential.NewPostgresMirror(pool),
	}, nil
}
