package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/msp-registration/internal/auth"
	"github.com/gdg-garage/msp-registration/internal/store"
)

// SyncFunc runs one sync attempt and reports success.
type SyncFunc func(ctx context.Context) bool

type SyncHandler struct {
	store       *store.Store
	database    SyncFunc
	github      SyncFunc
	authHandler *auth.AuthHandler
}

// NewSyncHandler wires the manual sync endpoints. A nil SyncFunc reports false.
func NewSyncHandler(st *store.Store, database, github SyncFunc, authHandler *auth.AuthHandler) *SyncHandler {
	return &SyncHandler{store: st, database: database, github: github, authHandler: authHandler}
}

type SyncInput struct {
	auth.AuthInput
}

type SyncOutput struct {
	Body struct {
		Database bool `json:"database" doc:"Bulk sync to the hosted database succeeded"`
		GitHub   bool `json:"github" doc:"Data file write to GitHub succeeded"`
	}
}

func (h *SyncHandler) HandleSync(ctx context.Context, input *SyncInput) (*SyncOutput, error) {
	if err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	res := &SyncOutput{}
	if h.database != nil {
		res.Body.Database = h.database(ctx)
	}
	if h.github != nil {
		res.Body.GitHub = h.github(ctx)
	}
	return res, nil
}

type SyncHistoryInput struct {
	auth.AuthInput
	Limit int `query:"limit" minimum:"1" maximum:"100" default:"20"`
}

type SyncRunResponse struct {
	ID         uint      `json:"id"`
	Backend    string    `json:"backend"`
	Operation  string    `json:"operation"`
	Records    int       `json:"records"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type SyncHistoryOutput struct {
	Body []SyncRunResponse
}

func (h *SyncHandler) HandleHistory(ctx context.Context, input *SyncHistoryInput) (*SyncHistoryOutput, error) {
	if err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	runs, err := h.store.Runs(ctx, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to fetch sync history")
	}

	response := make([]SyncRunResponse, 0, len(runs))
	for _, run := range runs {
		response = append(response, SyncRunResponse{
			ID:         run.ID,
			Backend:    run.Backend,
			Operation:  run.Operation,
			Records:    run.Records,
			Success:    run.Success,
			Error:      run.Error,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		})
	}
	return &SyncHistoryOutput{Body: response}, nil
}
