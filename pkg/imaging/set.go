package imaging

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPrefetchLimit bounds concurrent downloads during Prefetch.
const DefaultPrefetchLimit = 6

// Set holds the assets of one render, keyed by their reference. A Set is filled once by
// Prefetch and is read-only afterwards; it must not outlive the render.
type Set struct {
	mu     sync.RWMutex
	images map[string]*Image
	files  map[string][]byte
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{images: map[string]*Image{}, files: map[string][]byte{}}
}

// Image returns the image for ref, if it was resolved.
func (s *Set) Image(ref string) (*Image, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[strings.TrimSpace(ref)]
	return img, ok
}

// File returns the raw bytes of an attachment, if it was fetched.
func (s *Set) File(ref string) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[strings.TrimSpace(ref)]
	return data, ok
}

// PutImage stores an image under ref.
func (s *Set) PutImage(ref string, img *Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[strings.TrimSpace(ref)] = img
}

// PutFile stores raw attachment bytes under ref.
func (s *Set) PutFile(ref string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[strings.TrimSpace(ref)] = data
}

// Len returns the number of images and files held.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images) + len(s.files)
}

// Prefetch resolves every image reference and fetches every attachment concurrently,
// with at most limit downloads in flight. Failures are logged and leave the reference out
// of the set; they never fail the render. Duplicate and blank references are skipped.
func (r *Resolver) Prefetch(ctx context.Context, images, files []string, limit int, fields ...zap.Field) *Set {
	set := NewSet()
	if limit <= 0 {
		limit = DefaultPrefetchLimit
	}
	logger := r.logger.With(fields...)

	var g errgroup.Group
	g.SetLimit(limit)

	for _, ref := range unique(images) {
		ref := ref
		g.Go(func() error {
			img, err := r.Resolve(ctx, ref)
			if err != nil {
				logger.Warn("image unavailable", zap.String("ref", abbreviate(ref)), zap.Error(err))
				return nil
			}
			set.PutImage(ref, img)
			return nil
		})
	}
	for _, ref := range unique(files) {
		ref := ref
		g.Go(func() error {
			data, err := r.Fetch(ctx, ref)
			if err != nil {
				logger.Warn("attachment unavailable", zap.String("ref", abbreviate(ref)), zap.Error(err))
				return nil
			}
			set.PutFile(ref, data)
			return nil
		})
	}
	_ = g.Wait()
	return set
}

func unique(refs []string) []string {
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}

// abbreviate keeps DataURLs out of the logs.
func abbreviate(ref string) string {
	if IsDataURL(ref) && len(ref) > 48 {
		return ref[:48] + "..."
	}
	return ref
}
