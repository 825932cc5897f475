package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wudi/pdfoverlay/ingest"
	"github.com/wudi/pdfoverlay/overlay"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConvert(t *testing.T) {
	out, err := execute(t, "convert", "--unit", "inch", "--to", "ratio", "1", "1", "2", "1")
	if err != nil {
		t.Fatalf("convert error = %v\n%s", err, out)
	}
	var got conversion
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	approx := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(overlay.PageBox{Left: 72, Right: 216, Bottom: 648, Top: 720}, got.PageBox, approx); diff != "" {
		t.Fatalf("page box mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(overlay.PixelBox{Left: 72, Top: 72, Width: 144, Height: 72}, got.PixelBox, approx); diff != "" {
		t.Fatalf("pixel box mismatch (-want +got):\n%s", diff)
	}
	if got.Converted == nil || got.Converted.Unit != overlay.Ratio {
		t.Fatalf("converted rect = %+v", got.Converted)
	}
}

func TestConvertFromPixels(t *testing.T) {
	out, err := execute(t, "convert", "--from-pixels", "--unit", "inch", "72", "72", "144", "72")
	if err != nil {
		t.Fatalf("convert error = %v\n%s", err, out)
	}
	var got conversion
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	approx := cmpopts.EquateApprox(0, 1e-9)
	want := [4]float64{1, 1, 2, 1}
	gotVals := [4]float64{got.Rect.X, got.Rect.Y, got.Rect.Width, got.Rect.Height}
	if diff := cmp.Diff(want, gotVals, approx); diff != "" {
		t.Fatalf("rect mismatch (-want +got):\n%s", diff)
	}
	if got.Rect.Unit != overlay.Inch {
		t.Fatalf("rect unit = %v", got.Rect.Unit)
	}
	if diff := cmp.Diff(overlay.PixelBox{Left: 72, Top: 72, Width: 144, Height: 72}, got.PixelBox, approx); diff != "" {
		t.Fatalf("pixel box mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertRejectsBadInput(t *testing.T) {
	if _, err := execute(t, "convert", "--unit", "cm", "1", "1", "1", "1"); err == nil {
		t.Fatalf("expected unknown unit error")
	}
	if _, err := execute(t, "convert", "1", "x", "1", "1"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestIngestAndRenderHTML(t *testing.T) {
	dir := t.TempDir()
	analysis := filepath.Join(dir, "analysis.json")
	doc := `{"analysisResult":[{"matchingWords":[{"page":1,"words":[
		{"name":"total","polygon":[1,1,3,1,3,2,1,2]},
		{"name":"broken","polygon":[1,1]}
	]}]}]}`
	if err := os.WriteFile(analysis, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	config := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(config, []byte("ids: sequence\npages:\n  - {width: 612, height: 792}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rectsPath := filepath.Join(dir, "rects.json")
	if out, err := execute(t, "--config", config, "ingest", "analysis", analysis, "-o", rectsPath); err != nil {
		t.Fatalf("ingest error = %v\n%s", err, out)
	}
	f, err := os.Open(rectsPath)
	if err != nil {
		t.Fatal(err)
	}
	rects, err := ingest.Import(f)
	f.Close()
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(rects) != 1 || rects[0].Label != "total" || rects[0].ID != "r1" {
		t.Fatalf("ingested rects = %+v", rects)
	}

	outDir := filepath.Join(dir, "out")
	if out, err := execute(t, "--config", config, "render", "--rects", rectsPath, "--format", "html", "-o", outDir); err != nil {
		t.Fatalf("render error = %v\n%s", err, out)
	}
	html, err := os.ReadFile(filepath.Join(outDir, "overlay.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), `data-id="r1"`) || !strings.Contains(string(html), "total") {
		t.Fatalf("html missing the box:\n%s", html)
	}

	if out, err := execute(t, "--config", config, "render", "--rects", rectsPath, "-o", outDir); err != nil {
		t.Fatalf("png render error = %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "page-1.png")); err != nil {
		t.Fatalf("page png not written: %v", err)
	}
}

func TestIngestKeepsRectsBeforeUnparsableFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	doc := `{"analysisResult":[{"matchingWords":[{"page":2,"words":[
		{"name":"amount","polygon":[1,1,2,1,2,2,1,2]}
	]}]}]}`
	if err := os.WriteFile(good, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte(`{"analysisResult": [`), 0o644); err != nil {
		t.Fatal(err)
	}

	rectsPath := filepath.Join(dir, "rects.json")
	_, err := execute(t, "ingest", "analysis", good, bad, "-o", rectsPath)
	if !errors.Is(err, ingest.ErrUnparsable) {
		t.Fatalf("expected ErrUnparsable, got %v", err)
	}
	f, err := os.Open(rectsPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	rects, err := ingest.Import(f)
	f.Close()
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(rects) != 1 || rects[0].Label != "amount" || rects[0].Page != 2 {
		t.Fatalf("ingested rects = %+v", rects)
	}
}

func TestRenderNeedsGeometry(t *testing.T) {
	dir := t.TempDir()
	rectsPath := filepath.Join(dir, "rects.json")
	if err := os.WriteFile(rectsPath, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "render", "--rects", rectsPath, "-o", dir); err == nil {
		t.Fatalf("expected missing geometry error")
	}
}
