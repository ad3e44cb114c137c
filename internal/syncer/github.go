package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gdg-garage/msp-registration/internal/metrics"
	"github.com/gdg-garage/msp-registration/internal/models"
	"github.com/gdg-garage/msp-registration/internal/store"
)

// ContentStore is the source-control file the registrations are written to.
type ContentStore interface {
	GetContent(ctx context.Context) (sha string, found bool, err error)
	PutContent(ctx context.Context, message string, content []byte, sha string) error
}

// GitHubSyncer writes the whole local store as one JSON file to a repository. Only
// the admin device, the one holding the write token, ever syncs.
type GitHubSyncer struct {
	settings
	content ContentStore
	store   *store.Store
	admin   bool
}

func NewGitHubSyncer(content ContentStore, st *store.Store, admin bool, opts ...Option) *GitHubSyncer {
	return &GitHubSyncer{
		settings: newSettings(opts),
		content:  content,
		store:    st,
		admin:    admin,
	}
}

func commitMessage(t time.Time) string {
	return "Update registrations - " + t.Local().Format("1/2/2006, 3:04:05 PM")
}

// Sync replaces the repository file with the current local store. The previous
// blob sha is sent when the file already exists so a concurrent update is rejected.
func (g *GitHubSyncer) Sync(ctx context.Context) (ok bool) {
	if !g.admin || g.content == nil {
		g.metrics.RecordOperation(metrics.OperationGitHubSync, metrics.ResultDisabled)
		return false
	}

	run := &models.SyncRun{
		Backend:   models.BackendGitHub,
		Operation: metrics.OperationGitHubSync,
		StartedAt: g.now(),
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Panic while syncing to GitHub", "panic", r)
			run.Error = fmt.Sprint(r)
			ok = false
		}
		g.finish(ctx, run, ok)
	}()

	registrations, err := g.store.Load(ctx)
	if err != nil {
		g.logger.Error("Failed to read local registrations", "error", err)
		run.Error = err.Error()
		return false
	}
	run.Records = len(registrations)

	content, err := json.MarshalIndent(registrations, "", "  ")
	if err != nil {
		g.logger.Error("Failed to encode registrations", "error", err)
		run.Error = err.Error()
		return false
	}

	// A failed lookup is treated as a missing file; the write then creates it.
	sha, found, err := g.content.GetContent(ctx)
	if err != nil {
		g.logger.Debug("Could not read current data file, creating it", "error", err)
		sha = ""
	} else if !found {
		g.logger.Debug("Data file does not exist yet, creating it")
	}

	if err := g.content.PutContent(ctx, commitMessage(g.now()), content, sha); err != nil {
		g.logger.Error("Failed to sync to GitHub", "error", err)
		run.Error = err.Error()
		return false
	}

	g.logger.Info("Registrations synced to GitHub", "count", len(registrations))
	return true
}

func (g *GitHubSyncer) finish(ctx context.Context, run *models.SyncRun, ok bool) {
	result := metrics.ResultFailure
	if ok {
		result = metrics.ResultSuccess
		run.Error = ""
	}
	g.metrics.RecordOperation(run.Operation, result)

	run.Success = ok
	run.FinishedAt = g.now()
	if err := g.store.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		g.logger.Warn("Failed to record sync run", "error", err)
	}
}
