// Package storage resolves private object-storage references into fetchable URLs.
//
// Case records reference images and attachments either by a full storage URL (which may
// carry an expired signature) or by a bare object path inside the application's bucket.
// This package talks to the Supabase storage REST API to mint fresh signed URLs and falls
// back to the public URL form when signing is not possible.
//
// Main Functions:
//
// - ParseObjectURL / IsStorageURL: recognize storage URLs and extract bucket and object
// - Client.SignedURL: request a short-lived signed URL for an object
// - Client.Refresh: turn an expired storage URL into a fresh one
// - Client.ObjectURL: turn a bare object path into a fetchable URL
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// ErrNotStorageURL is returned when a URL does not point at an object-storage object.
var ErrNotStorageURL = errors.New("not an object storage URL")

var objectPathPattern = regexp.MustCompile(`/storage/v1/object/(?:public|sign|authenticated)/([^/?#]+)/([^?#]+)`)

// Signer mints fetchable URLs for storage objects.
type Signer interface {
	SignedURL(ctx context.Context, bucket, object string) (string, error)
}

// Config holds the connection settings of the storage client.
type Config struct {
	URL               string        // Project base URL, e.g. https://xyz.supabase.co
	ServiceKey        string        // Key sent as apikey and bearer token
	Bucket            string        // Bucket of bare object paths
	SignedURLTTL      time.Duration // Lifetime requested for signed URLs
	RequestsPerSecond float64       // Signing rate limit (0 = unlimited)
	HTTPClient        *http.Client  // Custom client (nil = instrumented default)
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Bucket:            "attachments",
		SignedURLTTL:      10 * time.Minute,
		RequestsPerSecond: 20,
	}
}

// Client is a Supabase storage client. The zero value is not usable; use New.
type Client struct {
	base    string
	key     string
	bucket  string
	ttl     time.Duration
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a storage client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	ttl := cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = DefaultConfig().SignedURLTTL
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		base:    strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		key:     cfg.ServiceKey,
		bucket:  cfg.Bucket,
		ttl:     ttl,
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.base != ""
}

// SignedURL requests a signed URL for bucket/object.
func (c *Client) SignedURL(ctx context.Context, bucket, object string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("storage URL not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("signing rate limit: %w", err)
	}

	body, err := json.Marshal(map[string]int{"expiresIn": int(c.ttl.Seconds())})
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.base, url.PathEscape(bucket), escapeObject(object))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("apikey", c.key)
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("sign request for %s/%s returned %d: %s", bucket, object, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		SignedURL  string `json:"signedURL"`
		SignedURL2 string `json:"signedUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode sign response: %w", err)
	}
	signed := out.SignedURL
	if signed == "" {
		signed = out.SignedURL2
	}
	if signed == "" {
		return "", fmt.Errorf("sign response for %s/%s has no URL", bucket, object)
	}
	return c.absolute(signed), nil
}

// absolute expands the relative path returned by the sign endpoint.
func (c *Client) absolute(signed string) string {
	if strings.HasPrefix(signed, "http://") || strings.HasPrefix(signed, "https://") {
		return signed
	}
	if !strings.HasPrefix(signed, "/") {
		signed = "/" + signed
	}
	if strings.HasPrefix(signed, "/storage/v1/") {
		return c.base + signed
	}
	return c.base + "/storage/v1" + signed
}

// PublicURL returns the public URL of bucket/object.
func (c *Client) PublicURL(bucket, object string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.base, url.PathEscape(bucket), escapeObject(object))
}

// Refresh turns a storage URL whose signature may have expired into a fresh signed URL,
// falling back to the public URL when signing fails.
func (c *Client) Refresh(ctx context.Context, rawURL string) (string, error) {
	bucket, object, err := ParseObjectURL(rawURL)
	if err != nil {
		return "", err
	}
	return c.resolve(ctx, bucket, object)
}

// ObjectURL turns a bare object path ("bucket/object" or an object of the default bucket)
// into a fetchable URL.
func (c *Client) ObjectURL(ctx context.Context, path string) (string, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", fmt.Errorf("empty object path")
	}
	bucket, object := c.bucket, strings.TrimPrefix(path, c.bucket+"/")
	if bucket == "" {
		var ok bool
		bucket, object, ok = strings.Cut(path, "/")
		if !ok {
			return "", fmt.Errorf("object path %q has no bucket", path)
		}
	}
	return c.resolve(ctx, bucket, object)
}

func (c *Client) resolve(ctx context.Context, bucket, object string) (string, error) {
	signed, err := c.SignedURL(ctx, bucket, object)
	if err == nil {
		return signed, nil
	}
	if !c.Configured() {
		return "", err
	}
	return c.PublicURL(bucket, object), nil
}

// ParseObjectURL extracts bucket and object from a storage URL of the public, sign or
// authenticated form. The object is returned unescaped.
func ParseObjectURL(rawURL string) (bucket, object string, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNotStorageURL, err)
	}
	m := objectPathPattern.FindStringSubmatch(u.EscapedPath())
	if m == nil {
		return "", "", ErrNotStorageURL
	}
	bucket, err = url.PathUnescape(m[1])
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNotStorageURL, err)
	}
	object, err = url.PathUnescape(m[2])
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNotStorageURL, err)
	}
	return bucket, object, nil
}

// IsStorageURL reports whether rawURL points at an object-storage object.
func IsStorageURL(rawURL string) bool {
	_, _, err := ParseObjectURL(rawURL)
	return err == nil
}

func escapeObject(object string) string {
	parts := strings.Split(strings.TrimLeft(object, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
