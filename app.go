package main

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"

	"github.com/chazu/edgejitter/pkg/engine"
	"github.com/chazu/edgejitter/pkg/profile"
	"github.com/chazu/edgejitter/pkg/render"
	"github.com/chazu/edgejitter/pkg/tessellate"
)

// Stroke colors for the frontend: user-drawn curves and generated notches.
const (
	colorNamed     = "#222222"
	colorGenerated = "#c0392b"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
// The palette settings (min, max, recurse) feed every evaluation; the
// preview is rebuilt from scratch each time.
type App struct {
	ctx    context.Context
	engine *engine.Engine

	mu        sync.Mutex
	source    string
	committed *profile.Profile
}

// PolylineData is the JSON-serializable curve format sent to the frontend.
type PolylineData struct {
	Points    []float64 `json:"points"` // x,y pairs
	Kind      string    `json:"kind"`
	CurveName string    `json:"curveName"`
	Color     string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Polylines []PolylineData  `json:"polylines"`
	Errors    []EvalErrorData `json:"errors"`
	Warnings  []EvalErrorData `json:"warnings"`
	Cuts      int             `json:"cuts"`
}

// Settings mirrors the palette fields.
type Settings struct {
	MinSize float64 `json:"minSize"`
	MaxSize float64 `json:"maxSize"`
	Recurse bool    `json:"recurse"`
}

// NewApp creates a new App with a default engine.
func NewApp(opts ...engine.Option) *App {
	return &App{engine: engine.NewEngine(opts...)}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// Settings returns the current palette values.
func (a *App) Settings() Settings {
	s := a.engine.Settings()
	return Settings{MinSize: s.MinSize, MaxSize: s.MaxSize, Recurse: s.Recurse}
}

func (a *App) SetMinSize(v float64) {
	s := a.engine.Settings()
	s.MinSize = v
	a.engine.Configure(s)
}

func (a *App) SetMaxSize(v float64) {
	s := a.engine.Settings()
	s.MaxSize = v
	a.engine.Configure(s)
}

func (a *App) SetRecurse(v bool) {
	s := a.engine.Settings()
	s.Recurse = v
	a.engine.Configure(s)
}

// Evaluate takes script source and returns polylines + errors.
// This is the primary binding called by the frontend editor. The source
// is remembered for Preview and Execute.
func (a *App) Evaluate(source string) EvalResult {
	a.mu.Lock()
	a.source = source
	a.mu.Unlock()
	res, _ := a.run(source)
	return res
}

// Preview re-evaluates the last source with the current palette settings.
// Nothing is committed.
func (a *App) Preview() EvalResult {
	a.mu.Lock()
	src := a.source
	a.mu.Unlock()
	res, _ := a.run(src)
	return res
}

// Execute evaluates the last source and commits the profile for export.
// A profile with errors is not committed.
func (a *App) Execute() EvalResult {
	a.mu.Lock()
	src := a.source
	a.mu.Unlock()

	res, p := a.run(src)
	if p != nil && len(res.Errors) == 0 {
		a.mu.Lock()
		a.committed = p
		a.mu.Unlock()
	}
	return res
}

// errNothingCommitted is returned by exports before any Execute.
var errNothingCommitted = errors.New("nothing has been executed yet")

// SVG renders the committed profile.
func (a *App) SVG() (string, error) {
	a.mu.Lock()
	p := a.committed
	a.mu.Unlock()
	if p == nil {
		return "", errNothingCommitted
	}
	var buf bytes.Buffer
	if err := render.WriteProfile(&buf, p, render.DefaultOptions()); err != nil {
		log.Printf("SVG render error: %v", err)
		return "", err
	}
	return buf.String(), nil
}

// dxfExporter is implemented by sketches that can write DXF.
type dxfExporter interface {
	ExportDXF(path string) error
}

// ExportDXF writes the committed profile to path.
func (a *App) ExportDXF(path string) error {
	a.mu.Lock()
	p := a.committed
	a.mu.Unlock()
	if p == nil {
		return errNothingCommitted
	}
	x, ok := p.Sketch.(dxfExporter)
	if !ok {
		return errors.New("sketch does not support DXF export")
	}
	if err := x.ExportDXF(path); err != nil {
		log.Printf("DXF export error: %v", err)
		return err
	}
	return nil
}

// run evaluates source and converts the outcome to the frontend format.
func (a *App) run(source string) (EvalResult, *profile.Profile) {
	result := EvalResult{
		Polylines: []PolylineData{},
		Errors:    []EvalErrorData{},
		Warnings:  []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a profile and validate it.
	res, err := a.engine.EvaluateAll(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result, nil
	}
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	p := res.Profile
	if p == nil {
		return result, nil
	}
	result.Cuts = p.CutCount()

	// Step 2: Flatten the sketch into polylines.
	polys, err := tessellate.Tessellate(p)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result, nil
	}

	// Step 3: Convert to the frontend format.
	for _, pl := range polys {
		color := colorGenerated
		if p.NameOf(pl.CurveID) != "" {
			color = colorNamed
		}
		result.Polylines = append(result.Polylines, PolylineData{
			Points:    pl.Points,
			Kind:      pl.Kind.String(),
			CurveName: pl.CurveName,
			Color:     color,
		})
	}
	return result, p
}
