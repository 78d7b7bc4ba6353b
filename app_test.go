package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/edgejitter/pkg/engine"
)

// TestE2EBoxExample exercises the full pipeline: script source → engine →
// profile → tessellate → polylines. This is the same path that the Wails
// Evaluate binding takes, but without the Wails runtime.
func TestE2EBoxExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/box.jit")
	if err != nil {
		t.Fatalf("failed to read box.jit: %v", err)
	}

	result := app.Evaluate(string(source))

	// No errors expected.
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}

	// Four edges were jittered, each with at least one notch.
	if result.Cuts < 4 {
		t.Errorf("expected at least 4 cuts, got %d", result.Cuts)
	}
	if len(result.Polylines) <= 4 {
		t.Fatalf("expected more polylines than the four box edges, got %d", len(result.Polylines))
	}

	named := false
	for _, pl := range result.Polylines {
		if len(pl.Points) < 4 || len(pl.Points)%2 != 0 {
			t.Errorf("curve %q: bad point list of length %d", pl.CurveName, len(pl.Points))
		}
		if pl.Color == "" {
			t.Errorf("curve %q: no color assigned", pl.CurveName)
		}
		if strings.HasPrefix(pl.CurveName, "bottom/") {
			named = true
			if pl.Color != colorNamed {
				t.Errorf("named fragment %q drawn as %s", pl.CurveName, pl.Color)
			}
		}
	}
	if !named {
		t.Error("expected named fragments of the bottom edge")
	}
}

func TestE2ECombExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/comb.jit")
	if err != nil {
		t.Fatalf("failed to read comb.jit: %v", err)
	}
	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Cuts != 3 {
		t.Errorf("expected 3 cuts, got %d", result.Cuts)
	}

	arcs := 0
	for _, pl := range result.Polylines {
		if pl.CurveName == "end" {
			arcs++
			if pl.Kind != "arc" {
				t.Errorf("end curve kind = %s, want arc", pl.Kind)
			}
		}
	}
	if arcs != 1 {
		t.Errorf("expected the end arc once, got %d", arcs)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Polylines) != 0 {
		t.Errorf("expected 0 polylines for empty source, got %d", len(result.Polylines))
	}
	// Slices must be non-nil so JSON serializes [] not null.
	if result.Polylines == nil || result.Errors == nil || result.Warnings == nil {
		t.Error("result slices should be non-nil")
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("(line 0 0 10 0")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if result.Errors[0].Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	if len(result.Polylines) != 0 {
		t.Errorf("expected 0 polylines on error, got %d", len(result.Polylines))
	}
}

func TestE2ESingleLine(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(line 0 0 100 0 :name "edge")`)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Polylines) != 1 {
		t.Fatalf("expected 1 polyline, got %d", len(result.Polylines))
	}
	pl := result.Polylines[0]
	if pl.CurveName != "edge" || pl.Kind != "line" || pl.Color != colorNamed {
		t.Errorf("unexpected polyline %+v", pl)
	}
	want := []float64{0, 0, 100, 0}
	for i, v := range want {
		if pl.Points[i] != v {
			t.Errorf("points = %v, want %v", pl.Points, want)
			break
		}
	}
}

func TestPaletteDrivesPreview(t *testing.T) {
	app := NewApp()
	app.SetMinSize(1)
	app.SetMaxSize(2)
	app.SetRecurse(false)

	first := app.Evaluate(`(jitter (line 0 0 30 0))`)
	if len(first.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", first.Errors)
	}
	if first.Cuts != 1 {
		t.Fatalf("single cut expected with recurse off, got %d", first.Cuts)
	}

	app.SetRecurse(true)
	second := app.Preview()
	if second.Cuts <= 1 {
		t.Errorf("recursive preview should cut more than once, got %d", second.Cuts)
	}
	if s := app.Settings(); !s.Recurse || s.MinSize != 1 || s.MaxSize != 2 {
		t.Errorf("settings = %+v", s)
	}

	// A max at a third of the length is rejected; the message reaches the user.
	app.SetMaxSize(10)
	third := app.Preview()
	if len(third.Errors) == 0 || !strings.Contains(third.Errors[0].Message, "1/3") {
		t.Errorf("expected the length limit error, got %v", third.Errors)
	}
}

func TestExecuteCommitsForExport(t *testing.T) {
	app := NewApp()

	if _, err := app.SVG(); err == nil {
		t.Error("expected error before anything was executed")
	}

	app.Evaluate(`(jitter (line 0 0 50 0 :name "edge") :min 1 :max 4)`)
	result := app.Execute()
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	svg, err := app.SVG()
	if err != nil {
		t.Fatalf("SVG: %v", err)
	}
	if !strings.HasPrefix(svg, "<?xml") && !strings.Contains(svg, "<svg") {
		t.Errorf("output does not look like SVG: %.60s", svg)
	}

	path := filepath.Join(t.TempDir(), "out.dxf")
	if err := app.ExportDXF(path); err != nil {
		t.Fatalf("ExportDXF: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("expected a non-empty DXF file, got %v", err)
	}
}

func TestExecuteKeepsLastGoodProfile(t *testing.T) {
	app := NewApp()
	app.Evaluate(`(line 0 0 10 0)`)
	app.Execute()
	before, err := app.SVG()
	if err != nil {
		t.Fatal(err)
	}

	app.Evaluate(`(line 0 0`)
	if res := app.Execute(); len(res.Errors) == 0 {
		t.Fatal("expected errors")
	}
	after, err := app.SVG()
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Error("a failed execute replaced the committed profile")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(filepath.Join(dir, "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Jitter.MaxSize != 2 {
		t.Errorf("default max size = %g, want 2", cfg.Jitter.MaxSize)
	}

	path := filepath.Join(dir, "jitter.toml")
	if err := os.WriteFile(path, []byte("[jitter]\nmin_size = 0.5\nmax_size = 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	app := NewApp(engine.WithSettings(engine.SettingsFromConfig(cfg)))
	if s := app.Settings(); s.MinSize != 0.5 || s.MaxSize != 1.5 {
		t.Errorf("palette did not pick up the config file: %+v", s)
	}

	if err := os.WriteFile(path, []byte("[jitter]\nmax_size = 400\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("expected an out-of-range config to be rejected")
	}
}
