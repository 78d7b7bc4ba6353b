// Package render writes sketch profiles as SVG drawings.
package render

import (
	"fmt"
	"io"
	"math"

	"github.com/jbeda/geom"

	"github.com/chazu/edgejitter/pkg/kernel"
	"github.com/chazu/edgejitter/pkg/profile"
	"github.com/chazu/edgejitter/pkg/tessellate"
)

// ---------------------------------------------------------------------------
// SVG serialization helper
// ---------------------------------------------------------------------------

// SVG writes SVG elements to an io.Writer. The first write error is kept
// and every later call becomes a no-op.
type SVG struct {
	w   io.Writer
	err error
}

func NewSVG(w io.Writer) *SVG {
	return &SVG{w: w}
}

// Err returns the first write error.
func (s *SVG) Err() error { return s.err }

func (s *SVG) printf(format string, a ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, a...)
}

func styleAttr(style string) string {
	if style == "" {
		return ""
	}
	return fmt.Sprintf(" style='%s'", style)
}

func onezero(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SVG) Start(viewBox geom.Rect, style string) {
	s.printf(`<?xml version="1.0"?>
<svg version="1.1"
     viewBox="%f %f %f %f"
     xmlns="http://www.w3.org/2000/svg"%s>
`, viewBox.Min.X, viewBox.Min.Y, viewBox.Width(), viewBox.Height(), styleAttr(style))
}

func (s *SVG) End() {
	s.printf("</svg>\n")
}

func (s *SVG) Line(p1, p2 geom.Coord, style string) {
	s.printf("<line x1='%f' y1='%f' x2='%f' y2='%f'%s/>\n", p1.X, p1.Y, p2.X, p2.Y, styleAttr(style))
}

// Polyline draws connected straight pieces through pts.
func (s *SVG) Polyline(pts []geom.Coord, style string) {
	if len(pts) < 2 {
		return
	}
	s.printf("<polyline points='")
	for i, p := range pts {
		if i > 0 {
			s.printf(" ")
		}
		s.printf("%f,%f", p.X, p.Y)
	}
	s.printf("'%s/>\n", styleAttr(style))
}

// CircularArc draws an arc of radius r from p1 to p2.
func (s *SVG) CircularArc(p1, p2 geom.Coord, r float64, largeArc, sweep bool, style string) {
	s.printf("<path d='M%f,%f A%f,%f 0 %d,%d %f,%f'%s/>\n",
		p1.X, p1.Y, r, r, onezero(largeArc), onezero(sweep), p2.X, p2.Y, styleAttr(style))
}

// ---------------------------------------------------------------------------
// Profile drawing
// ---------------------------------------------------------------------------

// Default drawing styles.
const (
	DefaultStyle      = "fill:none;stroke-linecap:round"
	DefaultStroke     = "stroke:#c0392b;stroke-width:%f"
	DefaultNameStroke = "stroke:#222222;stroke-width:%f"
)

// Options controls how a profile is drawn.
type Options struct {
	// Margin is added around the drawing bounds, in sketch units.
	Margin float64
	// StrokeWidth is the line width in sketch units. Zero picks a width
	// from the drawing size.
	StrokeWidth float64
	// FlipY maps the sketch's Y-up axis onto SVG's Y-down axis.
	FlipY bool
}

// DefaultOptions returns the options the CLI and preview use.
func DefaultOptions() Options {
	return Options{Margin: 2, FlipY: true}
}

// arcSketch is implemented by kernels that expose exact arc geometry.
type arcSketch interface {
	ArcGeometry(c kernel.Curve) (center kernel.Point, radius, start, sweep float64, err error)
}

func toCoord(p kernel.Point, flip bool) geom.Coord {
	if flip {
		return geom.Coord{X: p.X, Y: -p.Y}
	}
	return geom.Coord{X: p.X, Y: p.Y}
}

// Bounds returns the rectangle containing every polyline vertex, or
// geom.NilRect when there are none.
func Bounds(polys []*kernel.Polyline, flip bool) geom.Rect {
	bounds := geom.NilRect()
	for _, pl := range polys {
		for i := 0; i < pl.VertexCount(); i++ {
			bounds.ExpandToContainCoord(toCoord(pl.Vertex(i), flip))
		}
	}
	return bounds
}

// WriteProfile draws every live curve of p. Named curves are drawn dark,
// everything else (notches and fragments) in red. Arcs are written as
// true SVG arcs when the sketch can describe them.
func WriteProfile(w io.Writer, p *profile.Profile, opts Options) error {
	polys, err := tessellate.Tessellate(p)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	bounds := Bounds(polys, opts.FlipY)
	if len(polys) == 0 {
		bounds = geom.Rect{Max: geom.Coord{X: 1, Y: 1}}
	}
	bounds.Min.X -= opts.Margin
	bounds.Min.Y -= opts.Margin
	bounds.Max.X += opts.Margin
	bounds.Max.Y += opts.Margin

	width := opts.StrokeWidth
	if width <= 0 {
		width = math.Max(bounds.Width(), bounds.Height()) / 400
	}
	stroke := fmt.Sprintf(DefaultStroke, width)
	named := fmt.Sprintf(DefaultNameStroke, width)

	arcs, _ := p.Sketch.(arcSketch)
	byID := make(map[kernel.CurveID]kernel.Curve)
	for _, c := range p.Sketch.Curves() {
		byID[c.ID()] = c
	}

	s := NewSVG(w)
	s.Start(bounds, DefaultStyle)
	for _, pl := range polys {
		style := stroke
		if p.Lookup(pl.CurveName) != nil {
			style = named
		}
		if pl.Kind == kernel.CurveArc && arcs != nil {
			if drawArc(s, arcs, byID[pl.CurveID], opts.FlipY, style) {
				continue
			}
		}
		if pl.VertexCount() == 2 {
			s.Line(toCoord(pl.Vertex(0), opts.FlipY), toCoord(pl.Vertex(1), opts.FlipY), style)
			continue
		}
		pts := make([]geom.Coord, pl.VertexCount())
		for i := range pts {
			pts[i] = toCoord(pl.Vertex(i), opts.FlipY)
		}
		s.Polyline(pts, style)
	}
	s.End()
	return s.Err()
}

func drawArc(s *SVG, arcs arcSketch, c kernel.Curve, flip bool, style string) bool {
	if c == nil {
		return false
	}
	center, r, start, sweep, err := arcs.ArcGeometry(c)
	if err != nil {
		return false
	}
	end := start + sweep
	p1 := kernel.Point{X: center.X + r*math.Cos(start), Y: center.Y + r*math.Sin(start)}
	p2 := kernel.Point{X: center.X + r*math.Cos(end), Y: center.Y + r*math.Sin(end)}
	s.CircularArc(toCoord(p1, flip), toCoord(p2, flip), r, math.Abs(sweep) > math.Pi, (sweep > 0) != flip, style)
	return true
}
