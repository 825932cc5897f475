package scripting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wudi/pdfoverlay/overlay"
	"github.com/wudi/pdfoverlay/render"
)

const pageScript = `
function style(rect) {
	if (rect.unit === "pdf") { return {hidden: true}; }
	if (rect.page > 1) { return {label: rect.label.toUpperCase() + "@" + rect.page, color: "#00f"}; }
	return null;
}`

func TestGojaEngine_Style(t *testing.T) {
	engine, err := NewEngine("style.js", pageScript)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	tests := []struct {
		name string
		rect overlay.Rect
		want render.Style
	}{
		{"unchanged", overlay.Rect{Page: 1, Unit: overlay.Inch, Label: "a"}, render.Style{}},
		{"relabel", overlay.Rect{Page: 3, Unit: overlay.Ratio, Label: "total"}, render.Style{Label: "TOTAL@3", Color: "#00f"}},
		{"hidden", overlay.Rect{Page: 1, Unit: overlay.PDF}, render.Style{Hidden: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Style(context.Background(), tt.rect)
			if err != nil {
				t.Fatalf("Style() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Style() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGojaEngine_RequiresStyleFunc(t *testing.T) {
	if _, err := NewEngine("bad.js", "var x = 1;"); !errors.Is(err, ErrNoStyleFunc) {
		t.Fatalf("expected ErrNoStyleFunc, got %v", err)
	}
	if _, err := NewEngine("broken.js", "function style( {"); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestGojaEngine_BadResult(t *testing.T) {
	engine, err := NewEngine("s.js", `function style(r) { return 42; }`)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, err := engine.Style(context.Background(), overlay.Rect{Page: 1}); !errors.Is(err, ErrBadResult) {
		t.Fatalf("expected ErrBadResult, got %v", err)
	}
}

func TestGojaEngine_ScriptError(t *testing.T) {
	engine, err := NewEngine("s.js", `function style(r) { throw new Error("boom"); }`)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, err := engine.Style(context.Background(), overlay.Rect{Page: 1}); err == nil {
		t.Fatalf("expected script error")
	}
}

func TestGojaEngine_Timeout(t *testing.T) {
	engine, err := NewEngine("loop.js", `function style(r) { while (true) {} }`, WithTimeout(25*time.Millisecond))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, err := engine.Style(context.Background(), overlay.Rect{Page: 1}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
	if _, err := engine.Execute(context.Background(), "1 + 1"); err != nil {
		t.Fatalf("engine should recover after timeout, got %v", err)
	}
}

func TestGojaEngine_ContextCancellation(t *testing.T) {
	engine, err := NewEngine("s.js", `function style(r) { return null; }`, WithTimeout(0))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()
	if _, err := engine.Execute(ctx, "while (true) {}"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}

	got, err := engine.Execute(context.Background(), "1 + 1")
	if err != nil {
		t.Fatalf("engine should recover after cancellation, got %v", err)
	}
	if got != int64(2) {
		t.Fatalf("Execute() = %v (%T), want 2", got, got)
	}
}

func TestGojaEngine_ImmediateCancel(t *testing.T) {
	engine, err := NewEngine("s.js", `function style(r) { return null; }`)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Style(ctx, overlay.Rect{Page: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}

func TestGojaEngine_ExecuteDoesNotLeakGlobals(t *testing.T) {
	engine, err := NewEngine("s.js", `function style(r) { return typeof prefix === "undefined" ? null : {label: prefix}; }`)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, err := engine.Execute(context.Background(), `var prefix = "leaked"; style = function() { return {hidden: true}; };`); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, err := engine.Execute(context.Background(), `typeof prefix`); err != nil || got != "undefined" {
		t.Fatalf("Execute(typeof prefix) = %v, %v", got, err)
	}
	got, err := engine.Style(context.Background(), overlay.Rect{Page: 1})
	if err != nil {
		t.Fatalf("Style() error = %v", err)
	}
	if got != (render.Style{}) {
		t.Fatalf("Style() = %+v, want unchanged", got)
	}
}

func TestGojaEngine_Concurrent(t *testing.T) {
	engine, err := NewEngine("s.js", `function style(r) { return {label: r.id + "!"}; }`)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			st, err := engine.Style(context.Background(), overlay.Rect{ID: id, Page: 1})
			if err != nil {
				errs <- err
				return
			}
			if st.Label != id+"!" {
				errs <- errors.New("wrong label " + st.Label)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
