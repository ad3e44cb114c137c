// Package syncer mirrors locally captured registrations to the remote stores.
// Every public operation reports success as a bool; failures are logged and
// never returned.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdg-garage/msp-registration/internal/metrics"
	"github.com/gdg-garage/msp-registration/internal/models"
	"github.com/gdg-garage/msp-registration/internal/postgrest"
	"github.com/gdg-garage/msp-registration/internal/store"
)

// ConflictPolicy selects how a bulk sync treats rows that already exist remotely.
type ConflictPolicy int

const (
	// ConflictUpsert merges on (email, timestamp), so resending is idempotent.
	ConflictUpsert ConflictPolicy = iota
	// ConflictInsert appends every row; repeated syncs duplicate remote rows.
	ConflictInsert
)

const remoteDisabled = "remote disabled"

// ConflictColumns is the remote identity of a registration.
var ConflictColumns = []string{"email", "timestamp"}

// ParseConflictPolicy maps the configuration value onto a policy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "", "upsert":
		return ConflictUpsert, nil
	case "insert":
		return ConflictInsert, nil
	}
	return ConflictUpsert, fmt.Errorf("unknown conflict policy %q", s)
}

// Remote is the subset of the hosted database client used here.
type Remote interface {
	Insert(ctx context.Context, table string, rows any) error
	Upsert(ctx context.Context, table string, rows any, onConflict ...string) error
}

// RemoteProvider hands out the remote handle, or nil when remote delivery is disabled.
type RemoteProvider interface {
	Remote(ctx context.Context) Remote
}

type initializerProvider struct {
	init *postgrest.Initializer
}

func (p initializerProvider) Remote(ctx context.Context) Remote {
	if c := p.init.Client(ctx); c != nil {
		return c
	}
	return nil
}

// FromInitializer adapts a postgrest.Initializer to RemoteProvider.
func FromInitializer(initializer *postgrest.Initializer) RemoteProvider {
	return initializerProvider{init: initializer}
}

type settings struct {
	policy  ConflictPolicy
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*settings)

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithConflictPolicy only affects Service.SyncAll.
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		policy: ConflictUpsert,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Service delivers registrations to the hosted database.
type Service struct {
	settings
	remote RemoteProvider
	store  *store.Store
	table  string
}

func NewService(remote RemoteProvider, st *store.Store, table string, opts ...Option) *Service {
	return &Service{
		settings: newSettings(opts),
		remote:   remote,
		store:    st,
		table:    table,
	}
}

// SaveRegistration mirrors one freshly captured registration to the hosted database.
// The caller must already have written it to the local store.
func (s *Service) SaveRegistration(ctx context.Context, registration models.Registration) (ok bool) {
	run := s.startRun(metrics.OperationSubmit, 1)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while saving registration to hosted database", "panic", r)
			run.Error = fmt.Sprint(r)
			ok = false
		}
		s.finishRun(ctx, run, ok)
	}()

	remote := s.remote.Remote(ctx)
	if remote == nil {
		s.logger.Warn("Hosted database not initialized, registration saved locally only",
			"email", registration.Email)
		run.Error = remoteDisabled
		return false
	}

	if err := remote.Insert(ctx, s.table, []Row{ToRow(registration)}); err != nil {
		s.logger.Error("Hosted database insert failed",
			"table", s.table,
			"email", registration.Email,
			"error", err)
		run.Error = err.Error()
		return false
	}

	s.logger.Info("Registration saved to hosted database", "table", s.table, "email", registration.Email)
	return true
}

// SyncAll resends every locally stored registration in one batch call. An empty
// local store is a successful no-op.
func (s *Service) SyncAll(ctx context.Context) (ok bool) {
	run := s.startRun(metrics.OperationSync, 0)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while syncing to hosted database", "panic", r)
			run.Error = fmt.Sprint(r)
			ok = false
		}
		s.finishRun(ctx, run, ok)
	}()

	remote := s.remote.Remote(ctx)
	if remote == nil {
		s.logger.Debug("Hosted database not initialized, skipping sync")
		run.Error = remoteDisabled
		return false
	}

	registrations, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to read local registrations", "error", err)
		run.Error = err.Error()
		return false
	}
	run.Records = len(registrations)
	s.metrics.SetLocalRecords(len(registrations))

	if len(registrations) == 0 {
		s.logger.Debug("No registrations to sync")
		return true
	}

	s.logger.Info("Syncing registrations to hosted database", "count", len(registrations))

	rows := make([]Row, len(registrations))
	for i, r := range registrations {
		rows[i] = ToRow(r)
	}

	switch s.policy {
	case ConflictInsert:
		err = remote.Insert(ctx, s.table, rows)
	default:
		syncedAt := s.now().UTC().Format(time.RFC3339Nano)
		for i := range rows {
			rows[i].SyncedAt = syncedAt
		}
		err = remote.Upsert(ctx, s.table, rows, ConflictColumns...)
	}
	if err != nil {
		s.logger.Error("Hosted database sync failed", "table", s.table, "error", err)
		run.Error = err.Error()
		return false
	}

	s.logger.Info("All registrations synced to hosted database", "count", len(registrations))
	return true
}

func (s *Service) startRun(operation string, records int) *models.SyncRun {
	return &models.SyncRun{
		Backend:   models.BackendDatabase,
		Operation: operation,
		Records:   records,
		StartedAt: s.now(),
	}
}

func (s *Service) finishRun(ctx context.Context, run *models.SyncRun, ok bool) {
	result := metrics.ResultFailure
	switch {
	case ok:
		result = metrics.ResultSuccess
		run.Error = ""
	case run.Error == remoteDisabled:
		result = metrics.ResultDisabled
	}
	s.metrics.RecordOperation(run.Operation, result)

	// Disabled attempts are not recorded.
	if result == metrics.ResultDisabled {
		return
	}
	run.Success = ok
	run.FinishedAt = s.now()
	if err := s.store.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("Failed to record sync run", "error", err)
	}
}
