// Package gallery holds the drawings saved during a session.
//
// The store is append-only: drawings are never mutated, and they are only dropped when an
// explicit capacity is configured (oldest first). Readers always get a snapshot.
package gallery

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"k8s.io/klog/v2"
)

// SavedDrawing is an exported canvas kept in the session gallery.
type SavedDrawing struct {
	ID       string    `json:"id"`
	ImageURL string    `json:"image_url"` // Usually a "data:image/png;base64,..." URL.
	Date     time.Time `json:"date"`
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	drawings []SavedDrawing
	capacity int
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity bounds the number of drawings kept; once full, the oldest drawing is evicted.
// A capacity <= 0 means unbounded, which is the default.
func WithCapacity(n int) Option {
	return func(s *Store) { s.capacity = n }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordDrawing appends a new drawing, assigning its ID and timestamp.
// IDs are ULIDs: unique and lexicographically ordered by creation time.
func (s *Store) RecordDrawing(imageURL string) SavedDrawing {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	d := SavedDrawing{
		ID:       ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		ImageURL: imageURL,
		Date:     now,
	}
	s.drawings = append(s.drawings, d)
	if s.capacity > 0 && len(s.drawings) > s.capacity {
		evicted := len(s.drawings) - s.capacity
		klog.V(1).Infof("gallery: capacity %d reached, evicting %d oldest drawing(s)", s.capacity, evicted)
		s.drawings = append([]SavedDrawing(nil), s.drawings[evicted:]...)
	}
	klog.V(1).Infof("gallery: recorded drawing %s (%d bytes), %d drawings in session", d.ID, len(imageURL), len(s.drawings))
	return d
}

// SavedDrawings returns a snapshot of the gallery, oldest first.
func (s *Store) SavedDrawings() []SavedDrawing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SavedDrawing(nil), s.drawings...)
}

// Len returns the number of drawings currently kept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drawings)
}
