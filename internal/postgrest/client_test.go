package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func TestClient_Insert(t *testing.T) {
	var gotMethod, gotPath, gotConflict, gotPrefer, gotKey, gotAuth string
	var gotBody []map[string]any

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotConflict = r.URL.Query().Get("on_conflict")
		gotPrefer = r.Header.Get("Prefer")
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/", "anon-key")
	require.NoError(t, err)
	err = client.Insert(context.Background(), "msp_registrations", []map[string]any{{"name": "A"}})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/rest/v1/msp_registrations", gotPath)
	assert.Empty(t, gotConflict)
	assert.Contains(t, gotPrefer, "return=minimal")
	assert.NotContains(t, gotPrefer, "merge-duplicates")
	assert.Equal(t, "anon-key", gotKey)
	assert.Equal(t, "Bearer anon-key", gotAuth)
	assert.Equal(t, []map[string]any{{"name": "A"}}, gotBody)
}

func TestClient_UpsertConflictTarget(t *testing.T) {
	var gotConflict, gotPrefer string

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotConflict = r.URL.Query().Get("on_conflict")
		gotPrefer = r.Header.Get("Prefer")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "anon-key")
	require.NoError(t, err)
	require.NoError(t, client.Upsert(context.Background(), "t", []int{1}, "email", "timestamp"))

	assert.Equal(t, "email,timestamp", gotConflict)
	assert.Contains(t, gotPrefer, "resolution=merge-duplicates")
	assert.Contains(t, gotPrefer, "return=minimal")
}

func TestClient_ErrorResponse(t *testing.T) {
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value","details":"Key (email) exists","hint":null}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "k")
	require.NoError(t, err)

	err = client.Insert(context.Background(), "t", []int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert into t failed")
	assert.Contains(t, err.Error(), "duplicate key value")
}

func TestClient_ErrorResponsePlainText(t *testing.T) {
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("Bad Gateway"))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "k")
	require.NoError(t, err)

	err = client.Upsert(context.Background(), "t", []int{1}, "email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert into t failed")
}

func TestClient_Unreachable(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1", "k")
	require.NoError(t, err)

	err = client.Insert(context.Background(), "t", []int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert into t failed")
}

func TestClient_CanceledContext(t *testing.T) {
	var requests atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "k")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, client.Insert(ctx, "t", []int{1}), context.Canceled)
	require.ErrorIs(t, client.Upsert(ctx, "t", []int{1}, "email"), context.Canceled)
	assert.Zero(t, requests.Load())
}

func TestInitializer_Memoizes(t *testing.T) {
	var checks atomic.Int32
	initializer := NewInitializer("https://demo.supabase.co", "anon",
		WithDependencyCheck(func(ctx context.Context, baseURL string) error {
			checks.Add(1)
			return nil
		}))

	first := initializer.Client(context.Background())
	second := initializer.Client(context.Background())

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), checks.Load())
}

func TestInitializer_MissingCredentials(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		apiKey  string
	}{
		{"no url", "", "anon"},
		{"no key", "https://demo.supabase.co", ""},
		{"nothing", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			initializer := NewInitializer(tt.baseURL, tt.apiKey,
				WithDependencyCheck(func(context.Context, string) error {
					called = true
					return nil
				}))

			assert.Nil(t, initializer.Client(context.Background()))
			assert.False(t, called, "dependency check must not run without credentials")
		})
	}
}

func TestInitializer_FailedCheckIsRetried(t *testing.T) {
	fail := true
	initializer := NewInitializer("https://demo.supabase.co", "anon",
		WithDependencyCheck(func(context.Context, string) error {
			if fail {
				return errors.New("not available")
			}
			return nil
		}))

	assert.Nil(t, initializer.Client(context.Background()))
	assert.Equal(t, Failed, initializer.Ensure(context.Background()))

	fail = false
	assert.NotNil(t, initializer.Client(context.Background()))
}

func TestValidateBaseURL(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ValidateBaseURL(ctx, "https://demo.supabase.co"))
	assert.Error(t, ValidateBaseURL(ctx, "demo.supabase.co"))
	assert.Error(t, ValidateBaseURL(ctx, "ftp://demo.supabase.co"))
	assert.Error(t, ValidateBaseURL(ctx, "https://"))
}
