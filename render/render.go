package render

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wudi/pdfoverlay/coords"
	"github.com/wudi/pdfoverlay/observability"
	"github.com/wudi/pdfoverlay/overlay"
)

// ErrStale is returned by Session.Render when a newer render superseded the
// call before it finished. Its output is discarded.
var ErrStale = errors.New("render superseded by a newer request")

// ErrPageCount is returned when a page source reports a negative page count.
var ErrPageCount = errors.New("invalid page count")

// View is a page's pixel canvas: the page-to-pixel transform and the canvas
// size it produces.
type View struct {
	Transformer coords.Transformer
	Width       float64
	Height      float64
}

// PageSource is what the overlay needs from a document renderer.
type PageSource interface {
	NumPages() int
	// PageSize returns the page extent in points at scale 1.
	PageSize(page int) (overlay.PageSize, error)
	// View returns the canvas for page rendered at scale.
	View(page int, scale float64) (View, error)
}

// Styler lets callers override label and color per rectangle, or hide it.
type Styler interface {
	Style(ctx context.Context, r overlay.Rect) (Style, error)
}

type Style struct {
	Label  string
	Color  string
	Hidden bool
}

// Annotation is one rectangle ready to draw.
type Annotation struct {
	Rect  overlay.Rect     `json:"rect"`
	Box   overlay.PixelBox `json:"box"`
	Label string           `json:"label,omitempty"`
	Color string           `json:"color,omitempty"`
}

type PageOverlay struct {
	Page        int          `json:"page"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Annotations []Annotation `json:"annotations"`
	// Dropped counts rectangles that could not be projected or were
	// degenerate.
	Dropped int `json:"dropped"`
	// Err is set when the page itself could not be prepared; no annotations
	// are produced for it then.
	Err error `json:"-"`
}

type Result struct {
	Scale float64       `json:"scale"`
	Pages []PageOverlay `json:"pages"`
	// Unplaced counts rectangles whose page does not exist in the document.
	Unplaced int `json:"unplaced"`
}

// Annotations returns the total number of drawable annotations.
func (r *Result) Annotations() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Annotations)
	}
	return n
}

type Option func(*Renderer)

// WithWorkers bounds the number of pages projected concurrently.
func WithWorkers(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithLogger(log observability.Logger) Option {
	return func(r *Renderer) { r.log = observability.OrNop(log) }
}

func WithTracer(t observability.Tracer) Option {
	return func(r *Renderer) {
		if t != nil {
			r.tracer = t
		}
	}
}

func WithStyler(s Styler) Option {
	return func(r *Renderer) { r.styler = s }
}

// Renderer projects rectangles onto page canvases. It holds no per-render
// state and may be shared.
type Renderer struct {
	workers int
	log     observability.Logger
	tracer  observability.Tracer
	styler  Styler
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		workers: runtime.GOMAXPROCS(0),
		log:     observability.NopLogger{},
		tracer:  observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render projects rects for every page of src at scale. Failures of single
// rectangles are logged and counted, failures of a page are recorded on
// that page; only cancellation aborts the whole render. For the same
// inputs the result is identical.
func (r *Renderer) Render(ctx context.Context, src PageSource, rects []overlay.Rect, scale float64) (*Result, error) {
	ctx, span := r.tracer.StartSpan(ctx, observability.SpanRenderDocument)
	defer span.Finish()

	n := src.NumPages()
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrPageCount, n)
	}
	byPage := make(map[int][]overlay.Rect)
	res := &Result{Scale: scale, Pages: make([]PageOverlay, n)}
	for _, rect := range rects {
		if rect.Page < 1 || rect.Page > n {
			res.Unplaced++
			continue
		}
		byPage[rect.Page] = append(byPage[rect.Page], rect)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := 0; i < n; i++ {
		page := i + 1
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			po, err := r.renderPage(gctx, src, page, byPage[page], scale)
			if err != nil {
				return err
			}
			res.Pages[page-1] = po
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag("annotations", res.Annotations())
	return res, nil
}

func (r *Renderer) renderPage(ctx context.Context, src PageSource, page int, rects []overlay.Rect, scale float64) (PageOverlay, error) {
	ctx, span := r.tracer.StartSpan(ctx, observability.SpanRenderPage)
	defer span.Finish()
	span.SetTag("page", page)
	log := r.log.With(observability.Int("page", page))

	po := PageOverlay{Page: page, Annotations: []Annotation{}}
	size, err := src.PageSize(page)
	if err != nil {
		po.Err = fmt.Errorf("page %d size: %w", page, err)
		log.Warn("page skipped", observability.Error("error", po.Err))
		return po, nil
	}
	view, err := src.View(page, scale)
	if err != nil {
		po.Err = fmt.Errorf("page %d viewport: %w", page, err)
		log.Warn("page skipped", observability.Error("error", po.Err))
		return po, nil
	}
	po.Width, po.Height = view.Width, view.Height

	for _, rect := range rects {
		if err := ctx.Err(); err != nil {
			return PageOverlay{}, err
		}
		a, ok, err := r.annotate(ctx, rect, size, view)
		if err != nil {
			po.Dropped++
			log.Warn("rect dropped", observability.String("id", rect.ID), observability.Error("error", err))
			continue
		}
		if ok {
			po.Annotations = append(po.Annotations, a)
		}
	}
	if po.Dropped > 0 {
		span.SetTag("dropped", po.Dropped)
	}
	return po, nil
}

var errDegenerate = errors.New("degenerate rectangle")

// annotate returns ok=false for rectangles hidden by the styler.
func (r *Renderer) annotate(ctx context.Context, rect overlay.Rect, size overlay.PageSize, view View) (Annotation, bool, error) {
	box, err := overlay.ToPageSpace(rect, size)
	if err != nil {
		return Annotation{}, false, err
	}
	if box.Degenerate() {
		return Annotation{}, false, errDegenerate
	}
	px, err := overlay.ProjectPageBox(box, view.Transformer)
	if err != nil {
		return Annotation{}, false, err
	}
	a := Annotation{Rect: rect, Box: px, Label: rect.Label, Color: rect.Color}
	if r.styler != nil {
		st, err := r.styler.Style(ctx, rect)
		if err != nil {
			r.log.Warn("style ignored", observability.String("id", rect.ID), observability.Error("error", err))
			return a, true, nil
		}
		if st.Hidden {
			return Annotation{}, false, nil
		}
		if st.Label != "" {
			a.Label = st.Label
		}
		if st.Color != "" {
			a.Color = st.Color
		}
	}
	return a, true, nil
}

// Session serializes renders for one view. Starting a render cancels the
// one in flight, and only the most recent request's output is returned.
type Session struct {
	renderer *Renderer

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	latest *Result
}

func NewSession(r *Renderer) *Session {
	if r == nil {
		r = NewRenderer()
	}
	return &Session{renderer: r}
}

func (s *Session) Render(ctx context.Context, src PageSource, rects []overlay.Rect, scale float64) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.renderer.Render(ctx, src, rects, scale)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil, ErrStale
	}
	s.cancel = nil
	if err != nil {
		return nil, err
	}
	s.latest = res
	return res, nil
}

// Latest returns the most recent completed, non-stale result.
func (s *Session) Latest() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}
