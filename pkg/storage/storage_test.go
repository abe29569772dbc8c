package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectURL(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		bucket string
		object string
		err    bool
	}{
		{
			name:   "signed",
			in:     "https://abc.supabase.co/storage/v1/object/sign/attachments/cases/42/foto%201.png?token=xyz",
			bucket: "attachments",
			object: "cases/42/foto 1.png",
		},
		{
			name:   "public",
			in:     "https://abc.supabase.co/storage/v1/object/public/logos/header.jpg",
			bucket: "logos",
			object: "header.jpg",
		},
		{
			name:   "authenticated",
			in:     "https://abc.supabase.co/storage/v1/object/authenticated/private/a/b.webp",
			bucket: "private",
			object: "a/b.webp",
		},
		{name: "other host path", in: "https://example.com/images/a.png", err: true},
		{name: "missing object", in: "https://abc.supabase.co/storage/v1/object/public/logos", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, object, err := ParseObjectURL(tt.in)
			if tt.err {
				assert.True(t, errors.Is(err, ErrNotStorageURL))
				assert.False(t, IsStorageURL(tt.in))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.object, object)
			assert.True(t, IsStorageURL(tt.in))
		})
	}
}

func newSignServer(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		var body map[string]int
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 600, body["expiresIn"])
		if status != http.StatusOK {
			http.Error(w, `{"error":"not found"}`, status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"signedURL": "/object/sign/attachments/cases/1.png?token=new"})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSignedURL(t *testing.T) {
	srv, calls := newSignServer(t, http.StatusOK)
	c := New(Config{URL: srv.URL, ServiceKey: "secret", Bucket: "attachments", HTTPClient: srv.Client()})

	got, err := c.SignedURL(context.Background(), "attachments", "cases/1.png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/sign/attachments/cases/1.png?token=new", got)
	assert.Equal(t, []string{"POST /storage/v1/object/sign/attachments/cases/1.png"}, *calls)
}

func TestRefreshFallsBackToPublicURL(t *testing.T) {
	srv, calls := newSignServer(t, http.StatusBadRequest)
	c := New(Config{URL: srv.URL, ServiceKey: "secret", HTTPClient: srv.Client()})

	got, err := c.Refresh(context.Background(), "https://old.supabase.co/storage/v1/object/sign/attachments/cases/1.png?token=expired")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/attachments/cases/1.png", got)
	assert.Len(t, *calls, 1)
}

func TestRefreshRejectsForeignURL(t *testing.T) {
	c := New(Config{URL: "http://localhost"})
	_, err := c.Refresh(context.Background(), "https://example.com/a.png")
	assert.ErrorIs(t, err, ErrNotStorageURL)
}

func TestObjectURL(t *testing.T) {
	srv, calls := newSignServer(t, http.StatusOK)
	c := New(Config{URL: srv.URL, ServiceKey: "secret", Bucket: "attachments", HTTPClient: srv.Client()})

	_, err := c.ObjectURL(context.Background(), "/attachments/cases/1.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"POST /storage/v1/object/sign/attachments/cases/1.png"}, *calls)

	_, err = c.ObjectURL(context.Background(), " ")
	assert.Error(t, err)
}

func TestUnconfiguredClient(t *testing.T) {
	c := New(DefaultConfig())
	assert.False(t, c.Configured())
	_, err := c.ObjectURL(context.Background(), "cases/1.png")
	assert.Error(t, err)
}
