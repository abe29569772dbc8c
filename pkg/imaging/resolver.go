package imaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/storage"
)

// maxFetchBytes caps a single download.
const maxFetchBytes = 32 << 20

// ObjectStore mints fetchable URLs for storage references. *storage.Client implements it.
type ObjectStore interface {
	Configured() bool
	Refresh(ctx context.Context, rawURL string) (string, error)
	ObjectURL(ctx context.Context, path string) (string, error)
}

// ResolverConfig holds the settings of a Resolver.
type ResolverConfig struct {
	HTTPClient *http.Client // Custom client (nil = instrumented client with Timeout)
	Timeout    time.Duration
	Store      ObjectStore // Storage used for bare paths and signed-URL recovery (nil = none)
	Logger     *zap.Logger
}

// DefaultResolverConfig returns a config with sensible defaults
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{Timeout: 30 * time.Second}
}

// Resolver fetches and normalizes image references.
type Resolver struct {
	http   *http.Client
	store  ObjectStore
	logger *zap.Logger
}

// NewResolver creates a resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultResolverConfig().Timeout
		}
		hc = &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{http: hc, store: cfg.Store, logger: logger}
}

// Resolve returns the normalized image behind ref.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	if IsDataURL(ref) {
		return DecodeDataURL(ref)
	}
	data, err := r.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", ref, err)
	}
	return img, nil
}

// Fetch downloads the raw bytes behind a URL or object path. A failed storage URL is
// retried exactly once with a freshly signed (or public) URL.
func (r *Resolver) Fetch(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty reference")
	}
	if !isHTTP(ref) {
		if r.store == nil || !r.store.Configured() {
			return nil, fmt.Errorf("object path %q cannot be resolved: storage not configured", ref)
		}
		u, err := r.store.ObjectURL(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve object path %q: %w", ref, err)
		}
		return r.get(ctx, u)
	}

	data, err := r.get(ctx, ref)
	if err == nil {
		return data, nil
	}
	if r.store == nil || !r.store.Configured() || !storage.IsStorageURL(ref) {
		return nil, err
	}
	fresh, rerr := r.store.Refresh(ctx, ref)
	if rerr != nil {
		return nil, fmt.Errorf("%w (refresh failed: %v)", err, rerr)
	}
	r.logger.Debug("retrying with refreshed storage URL", zap.String("ref", ref))
	return r.get(ctx, fresh)
}

func (r *Resolver) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > maxFetchBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxFetchBytes)
	}
	return data, nil
}

func isHTTP(ref string) bool {
	l := strings.ToLower(ref)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
