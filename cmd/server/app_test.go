package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdg-garage/msp-registration/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, env map[string]string) *app {
	t.Helper()
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("LOG_LEVEL", "error")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	return a
}

func TestSyncOnce_NoRemoteConfigured(t *testing.T) {
	a := newTestApp(t, nil)

	err := a.syncOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local only")
}

func TestSchedulers_DisabledWithoutRemotes(t *testing.T) {
	a := newTestApp(t, nil)

	for _, s := range a.schedulers() {
		assert.False(t, s.Enabled())
	}
}

func TestSchedulers_GatedPerRemote(t *testing.T) {
	a := newTestApp(t, map[string]string{"GITHUB_TOKEN": "ghp_token"})

	enabled := map[bool]int{}
	for _, s := range a.schedulers() {
		enabled[s.Enabled()]++
	}
	assert.Equal(t, 1, enabled[true], "only the GitHub scheduler runs")
	assert.Equal(t, 1, enabled[false])
}

func TestSyncOnce_ReportsFailedRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	a := newTestApp(t, map[string]string{
		"GITHUB_TOKEN":   "ghp_token",
		"GITHUB_API_URL": server.URL,
	})

	err := a.syncOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github")
}

func TestRouter_ServesHealth(t *testing.T) {
	a := newTestApp(t, nil)

	rec := httptest.NewRecorder()
	a.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenCommand_PrintsToken(t *testing.T) {
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("JWT_SECRET", "test-secret")
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := newRootCmd()
	var out strings.Builder
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out.String()), "."), "prints a JWT")
}
