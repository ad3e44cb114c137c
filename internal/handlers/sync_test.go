package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/gdg-garage/msp-registration/internal/models"
)

func TestHandleSync(t *testing.T) {
	authHandler := newAuth()
	calls := 0
	handler := NewSyncHandler(newTestStore(t), func(context.Context) bool {
		calls++
		return true
	}, nil, authHandler)

	if _, err := handler.HandleSync(context.Background(), &SyncInput{}); err == nil {
		t.Fatal("expected error for unauthenticated request")
	}
	if calls != 0 {
		t.Fatalf("sync must not run for unauthenticated requests")
	}

	resp, err := handler.HandleSync(context.Background(), &SyncInput{AuthInput: adminInput(t, authHandler)})
	if err != nil {
		t.Fatalf("HandleSync returned error: %v", err)
	}
	if !resp.Body.Database || resp.Body.GitHub {
		t.Errorf("unexpected result: %+v", resp.Body)
	}
	if calls != 1 {
		t.Errorf("expected 1 sync call, got %d", calls)
	}
}

func TestHandleHistory(t *testing.T) {
	st := newTestStore(t)
	authHandler := newAuth()
	handler := NewSyncHandler(st, nil, nil, authHandler)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, ok := range []bool{true, false, true} {
		run := &models.SyncRun{
			Backend:   models.BackendDatabase,
			Operation: "sync",
			Success:   ok,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.RecordRun(context.Background(), run); err != nil {
			t.Fatalf("failed to record run: %v", err)
		}
	}

	resp, err := handler.HandleHistory(context.Background(), &SyncHistoryInput{AuthInput: adminInput(t, authHandler), Limit: 2})
	if err != nil {
		t.Fatalf("HandleHistory returned error: %v", err)
	}
	if len(resp.Body) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(resp.Body))
	}
	if !resp.Body[0].StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("expected newest run first, got %v", resp.Body[0].StartedAt)
	}
	if resp.Body[1].Success {
		t.Errorf("expected second entry to be the failed run")
	}
}
