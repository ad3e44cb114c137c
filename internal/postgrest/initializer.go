package postgrest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
)

// LoadResult is the outcome of preparing the remote dependency.
type LoadResult int

const (
	Ready LoadResult = iota
	Failed
)

func (r LoadResult) String() string {
	if r == Ready {
		return "ready"
	}
	return "failed"
}

// DependencyCheck prepares whatever the client needs before it can be built.
// An error means the client cannot be used for this call.
type DependencyCheck func(ctx context.Context, baseURL string) error

// ValidateBaseURL is the default check: the endpoint must be an absolute http(s) URL.
func ValidateBaseURL(_ context.Context, baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}
	return nil
}

// Initializer lazily builds one Client and hands the same handle to every caller.
// Missing credentials mean remote delivery is disabled, reported as a nil handle.
type Initializer struct {
	baseURL string
	apiKey  string
	check   DependencyCheck
	logger  *slog.Logger

	mu     sync.Mutex
	client *Client
}

type Option func(*Initializer)

func WithDependencyCheck(check DependencyCheck) Option {
	return func(i *Initializer) {
		i.check = check
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Initializer) {
		i.logger = logger
	}
}

func NewInitializer(baseURL, apiKey string, opts ...Option) *Initializer {
	i := &Initializer{
		baseURL: baseURL,
		apiKey:  apiKey,
		check:   ValidateBaseURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Configured reports whether both the base URL and key are present.
func (i *Initializer) Configured() bool {
	return i.baseURL != "" && i.apiKey != ""
}

// Ensure runs the dependency check.
func (i *Initializer) Ensure(ctx context.Context) LoadResult {
	if err := i.check(ctx, i.baseURL); err != nil {
		i.logger.Error("Failed to prepare hosted database client", "url", i.baseURL, "error", err)
		return Failed
	}
	return Ready
}

// Client returns the memoized handle, building it on first use. It returns nil when
// credentials are missing, the dependency check fails or the client cannot be built;
// nothing is memoized on failure, so the next call tries again.
func (i *Initializer) Client(ctx context.Context) *Client {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.client != nil {
		return i.client
	}

	if !i.Configured() {
		i.logger.Warn("Hosted database credentials not configured, registrations will save locally only")
		return nil
	}

	if i.Ensure(ctx) != Ready {
		return nil
	}

	client, err := NewClient(i.baseURL, i.apiKey)
	if err != nil {
		i.logger.Error("Failed to create hosted database client", "url", i.baseURL, "error", err)
		return nil
	}
	i.client = client
	i.logger.Info("Hosted database client initialized", "url", i.baseURL)
	return i.client
}
