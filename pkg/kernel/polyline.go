package kernel

import "math"

// Polyline is a flattened curve suitable for drawing.
// Points are stored flat as x0,y0, x1,y1, ... in sketch units.
type Polyline struct {
	Points    []float64 `json:"points"`    // [x0,y0, x1,y1, ...]
	CurveID   CurveID   `json:"curveId"`   // which sketch curve this came from
	Kind      CurveKind `json:"kind"`      // primitive the polyline approximates
	CurveName string    `json:"curveName"` // profile name, if the curve was named
}

// VertexCount returns the number of vertices.
func (p *Polyline) VertexCount() int {
	return len(p.Points) / 2
}

// SegmentCount returns the number of straight pieces.
func (p *Polyline) SegmentCount() int {
	if n := p.VertexCount(); n > 1 {
		return n - 1
	}
	return 0
}

// IsEmpty returns true if the polyline has nothing to draw.
func (p *Polyline) IsEmpty() bool {
	return p.VertexCount() < 2
}

// Length returns the summed length of all straight pieces.
func (p *Polyline) Length() float64 {
	var total float64
	for i := 2; i+1 < len(p.Points); i += 2 {
		total += math.Hypot(p.Points[i]-p.Points[i-2], p.Points[i+1]-p.Points[i-1])
	}
	return total
}

// Vertex returns the i-th vertex as a point.
func (p *Polyline) Vertex(i int) Point {
	return Pt(p.Points[2*i], p.Points[2*i+1])
}
