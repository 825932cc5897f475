package scripting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/wudi/pdfoverlay/observability"
	"github.com/wudi/pdfoverlay/overlay"
	"github.com/wudi/pdfoverlay/render"
)

// DefaultTimeout bounds a single style call.
const DefaultTimeout = 250 * time.Millisecond

type Option func(*GojaEngine)

// WithTimeout sets the per-call limit; zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *GojaEngine) { e.timeout = d }
}

func WithLogger(log observability.Logger) Option {
	return func(e *GojaEngine) { e.log = observability.OrNop(log) }
}

// GojaEngine is safe for concurrent use. goja runtimes are not, so each
// call borrows one from a pool; all of them run the same compiled program.
type GojaEngine struct {
	program *goja.Program
	timeout time.Duration
	log     observability.Logger
	pool    sync.Pool
}

var _ Engine = (*GojaEngine)(nil)

type vmState struct {
	vm    *goja.Runtime
	style goja.Callable
}

// NewEngine compiles src and checks that it defines style.
func NewEngine(name, src string, opts ...Option) (*GojaEngine, error) {
	prog, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	e := &GojaEngine{program: prog, timeout: DefaultTimeout, log: observability.NopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	st, err := e.newState()
	if err != nil {
		return nil, err
	}
	e.pool.Put(st)
	return e, nil
}

func (e *GojaEngine) newState() (*vmState, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if _, err := vm.RunProgram(e.program); err != nil {
		return nil, fmt.Errorf("run program: %w", err)
	}
	fn, ok := goja.AssertFunction(vm.Get("style"))
	if !ok {
		return nil, ErrNoStyleFunc
	}
	return &vmState{vm: vm, style: fn}, nil
}

func (e *GojaEngine) acquire() (*vmState, error) {
	if st, ok := e.pool.Get().(*vmState); ok {
		return st, nil
	}
	return e.newState()
}

// guard runs fn with the runtime interrupted when ctx ends or the timeout
// elapses, and maps an interruption back to the context error.
func (e *GojaEngine) guard(ctx context.Context, vm *goja.Runtime, fn func() (goja.Value, error)) (goja.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := fn()
	close(done)
	<-stopped
	vm.ClearInterrupt()

	if err != nil {
		if interrupted, ok := err.(*goja.InterruptedError); ok {
			if cause := interrupted.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val, nil
}

// Style implements render.Styler.
func (e *GojaEngine) Style(ctx context.Context, r overlay.Rect) (render.Style, error) {
	st, err := e.acquire()
	if err != nil {
		return render.Style{}, err
	}
	defer e.pool.Put(st)

	val, err := e.guard(ctx, st.vm, func() (goja.Value, error) {
		return st.style(goja.Undefined(), st.vm.ToValue(viewOf(r)))
	})
	if err != nil {
		e.log.Debug("style script failed", observability.String("id", r.ID), observability.Error("error", err))
		return render.Style{}, err
	}
	return toStyle(val)
}

// Execute runs script on a runtime of its own that is discarded afterwards,
// so globals it sets never reach Style.
func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	st, err := e.newState()
	if err != nil {
		return nil, err
	}

	val, err := e.guard(ctx, st.vm, func() (goja.Value, error) {
		return st.vm.RunString(script)
	})
	if err != nil {
		return nil, err
	}
	return val.Export(), nil
}

func toStyle(val goja.Value) (render.Style, error) {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return render.Style{}, nil
	}
	m, ok := val.Export().(map[string]interface{})
	if !ok {
		return render.Style{}, fmt.Errorf("%w: got %s", ErrBadResult, val.String())
	}
	var out render.Style
	if v, ok := m["label"]; ok && v != nil {
		out.Label = fmt.Sprint(v)
	}
	if v, ok := m["color"]; ok && v != nil {
		out.Color = fmt.Sprint(v)
	}
	if v, ok := m["hidden"].(bool); ok {
		out.Hidden = v
	}
	return out, nil
}
