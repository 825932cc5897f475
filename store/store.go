// Package store holds the editable set of overlay rectangles for one
// session. It keeps insertion order for stable display and never validates
// geometry: inverted or zero-size rectangles are the renderer's concern.
package store

import (
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/wudi/pdfoverlay/idgen"
	"github.com/wudi/pdfoverlay/observability"
	"github.com/wudi/pdfoverlay/overlay"
)

// Patch lists the fields to change on a rectangle; nil fields are left as
// they are. ID is not patchable.
type Patch struct {
	Page   *int
	X      *float64
	Y      *float64
	Width  *float64
	Height *float64
	Unit   overlay.Unit
	Label  *string
	Color  *string
}

func (p Patch) apply(r overlay.Rect) overlay.Rect {
	if p.Page != nil {
		r.Page = *p.Page
	}
	if p.X != nil {
		r.X = *p.X
	}
	if p.Y != nil {
		r.Y = *p.Y
	}
	if p.Width != nil {
		r.Width = *p.Width
	}
	if p.Height != nil {
		r.Height = *p.Height
	}
	if p.Unit != nil {
		r.Unit = p.Unit
	}
	if p.Label != nil {
		r.Label = *p.Label
	}
	if p.Color != nil {
		r.Color = *p.Color
	}
	return r
}

type Option func(*Store)

func WithIDs(ids idgen.Generator) Option {
	return func(s *Store) { s.ids = ids }
}

func WithLogger(log observability.Logger) Option {
	return func(s *Store) { s.log = observability.OrNop(log) }
}

// Store is safe for concurrent use. Readers never observe a half-applied
// patch.
type Store struct {
	ids idgen.Generator
	log observability.Logger

	mu       sync.RWMutex
	rects    []overlay.Rect
	revision uint64
}

func New(opts ...Option) *Store {
	s := &Store{ids: idgen.UUID{}, log: observability.NopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends r and returns the stored record. A rectangle without an id,
// or with one already in the store, gets a fresh id.
func (s *Store) Add(r overlay.Rect) overlay.Rect {
	s.mu.Lock()
	given := r.ID
	for r.ID == "" || s.hasLocked(r.ID) {
		r.ID = s.ids.NewID()
	}
	s.rects = append(s.rects, r)
	s.revision++
	s.mu.Unlock()
	if given != "" && given != r.ID {
		s.log.Warn("duplicate rect id replaced", observability.String("id", given), observability.String("new_id", r.ID))
	}
	s.log.Debug("rect added", observability.String("id", r.ID), observability.Int("page", r.Page))
	return r
}

func (s *Store) hasLocked(id string) bool {
	return slices.ContainsFunc(s.rects, func(r overlay.Rect) bool { return r.ID == id })
}

// AddAll appends every rectangle in order.
func (s *Store) AddAll(rects []overlay.Rect) []overlay.Rect {
	out := make([]overlay.Rect, 0, len(rects))
	for _, r := range rects {
		out = append(out, s.Add(r))
	}
	return out
}

// Update merges p into the rectangle with the given id. A missing id means
// the target is already gone; Update then reports false and does nothing.
func (s *Store) Update(id string, p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, i, ok := lo.FindIndexOf(s.rects, func(r overlay.Rect) bool { return r.ID == id })
	if !ok {
		s.log.Debug("update of unknown rect ignored", observability.String("id", id))
		return false
	}
	s.rects[i] = p.apply(s.rects[i])
	s.revision++
	return true
}

// Remove deletes the rectangle with the given id.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.rects)
	s.rects = slices.DeleteFunc(s.rects, func(r overlay.Rect) bool { return r.ID == id })
	if len(s.rects) == n {
		return false
	}
	s.revision++
	return true
}

func (s *Store) Get(id string) (overlay.Rect, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, _, ok := lo.FindIndexOf(s.rects, func(r overlay.Rect) bool { return r.ID == id })
	return r, ok
}

// List returns a copy of all rectangles in insertion order.
func (s *Store) List() []overlay.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rects)
}

// ListForPage returns the rectangles on page in insertion order.
func (s *Store) ListForPage(page int) []overlay.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.rects, func(r overlay.Rect, _ int) bool { return r.Page == page })
}

// Pages returns the distinct pages referenced, ascending.
func (s *Store) Pages() []int {
	s.mu.RLock()
	pages := lo.Uniq(lo.Map(s.rects, func(r overlay.Rect, _ int) int { return r.Page }))
	s.mu.RUnlock()
	slices.Sort(pages)
	return pages
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rects)
}

// Snapshot returns the rectangles together with the revision they belong
// to. The revision changes on every mutation.
func (s *Store) Snapshot() ([]overlay.Rect, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rects), s.revision
}

func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
