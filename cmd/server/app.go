package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gdg-garage/msp-registration/internal/auth"
	"github.com/gdg-garage/msp-registration/internal/config"
	"github.com/gdg-garage/msp-registration/internal/database"
	"github.com/gdg-garage/msp-registration/internal/github"
	"github.com/gdg-garage/msp-registration/internal/handlers"
	"github.com/gdg-garage/msp-registration/internal/logging"
	"github.com/gdg-garage/msp-registration/internal/metrics"
	"github.com/gdg-garage/msp-registration/internal/notifier"
	"github.com/gdg-garage/msp-registration/internal/postgrest"
	"github.com/gdg-garage/msp-registration/internal/scheduler"
	"github.com/gdg-garage/msp-registration/internal/store"
	"github.com/gdg-garage/msp-registration/internal/syncer"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// app holds everything built from one Config.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	// syncLogger is discarded on non-admin devices when sync status is hidden.
	syncLogger *slog.Logger
	store      *store.Store
	registry   *prometheus.Registry
	database   *syncer.Service
	github     *syncer.GitHubSyncer
	auth       *auth.AuthHandler
	notifier   notifier.Notifier
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	syncLogger := logger.With("component", "sync")
	if !cfg.ShowSyncStatus && !cfg.IsAdminDevice() {
		syncLogger = logging.Discard()
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	st := store.New(db, cfg.StoreKey, store.WithHistoryLimit(cfg.SyncHistoryLimit))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	policy, err := syncer.ParseConflictPolicy(cfg.SupabaseConflictPolicy)
	if err != nil {
		return nil, err
	}

	initializer := postgrest.NewInitializer(cfg.SupabaseURL, cfg.SupabaseAnonKey,
		postgrest.WithLogger(syncLogger))
	databaseSync := syncer.NewService(syncer.FromInitializer(initializer), st, cfg.SupabaseTable,
		syncer.WithLogger(syncLogger),
		syncer.WithMetrics(m),
		syncer.WithConflictPolicy(policy))

	var content syncer.ContentStore
	if cfg.IsAdminDevice() {
		content = github.NewClient(ctx, cfg.GitHubAPIURL, strings.TrimSpace(cfg.GitHubToken), github.Target{
			Owner:  cfg.GitHubOwner,
			Repo:   cfg.GitHubRepo,
			Branch: cfg.GitHubBranch,
			Path:   cfg.GitHubDataFilePath,
		})
	}
	gh := syncer.NewGitHubSyncer(content, st, cfg.IsAdminDevice(),
		syncer.WithLogger(syncLogger),
		syncer.WithMetrics(m))

	a := &app{
		cfg:        cfg,
		logger:     logger,
		syncLogger: syncLogger,
		store:      st,
		registry:   registry,
		database:   databaseSync,
		github:     gh,
		auth:       auth.NewAuthHandler(cfg),
	}

	discordNotifier, err := notifier.NewDiscordNotifier(cfg)
	if err != nil {
		logger.Info("Discord notifier not initialized", "reason", err)
	} else {
		a.notifier = discordNotifier
	}

	return a, nil
}

func (a *app) schedulers() []*scheduler.Scheduler {
	return []*scheduler.Scheduler{
		scheduler.New("database", a.cfg.SyncInterval(),
			a.cfg.AutoSync && a.cfg.DatabaseEnabled(), a.database.SyncAll, a.syncLogger),
		scheduler.New("github", a.cfg.GitHubSyncInterval(),
			a.cfg.AutoSync && a.cfg.IsAdminDevice(), a.github.Sync, a.syncLogger),
	}
}

func (a *app) router() *chi.Mux {
	registrationHandler := handlers.NewRegistrationHandler(a.store, a.database, a.notifier, a.auth, a.logger)
	syncHandler := handlers.NewSyncHandler(a.store, a.database.SyncAll, a.github.Sync, a.auth)
	metricsHandler := promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, a.auth, registrationHandler, syncHandler, metricsHandler)
	return r
}

// syncOnce runs every configured remote once and reports whether all succeeded.
func (a *app) syncOnce(ctx context.Context) error {
	ran := false
	var failed []string

	if a.cfg.DatabaseEnabled() {
		ran = true
		if !a.database.SyncAll(ctx) {
			failed = append(failed, "database")
		}
	}
	if a.cfg.IsAdminDevice() {
		ran = true
		if !a.github.Sync(ctx) {
			failed = append(failed, "github")
		}
	}

	if !ran {
		return fmt.Errorf("no remote store configured, registrations are local only")
	}
	if len(failed) > 0 {
		return fmt.Errorf("sync failed for: %s", strings.Join(failed, ", "))
	}
	return nil
}
