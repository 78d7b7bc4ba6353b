// Package kernel defines the abstract 2D curve kernel interface.
// Implementations own a single sketch: they create, split, trim and
// delete curves and answer geometric queries about them. The core
// jitter algorithm only ever talks to the sketch through this
// interface, so a host CAD kernel can be swapped in without changing it.
package kernel

import "fmt"

// Axis is one of the two sketch-plane coordinate axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "unknown"
	}
}

// Other returns the orthogonal axis.
func (a Axis) Other() Axis {
	if a == AxisX {
		return AxisY
	}
	return AxisX
}

// Point is an immutable sketch coordinate. Z is carried for hosts that
// work in 3D points but is always 0 on the sketch plane.
type Point struct {
	X, Y, Z float64
}

// Pt returns the sketch-plane point (x, y).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Coord returns the coordinate of p along the given axis.
func (p Point) Coord(a Axis) float64 {
	if a == AxisX {
		return p.X
	}
	return p.Y
}

// WithCoord returns a copy of p with the coordinate along a replaced by v.
func (p Point) WithCoord(a Axis, v float64) Point {
	if a == AxisX {
		p.X = v
	} else {
		p.Y = v
	}
	return p
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// CurveID identifies a curve within one sketch. IDs are never reused.
type CurveID uint64

// CurveKind distinguishes the curve primitives a kernel can produce.
type CurveKind int

const (
	CurveLine CurveKind = iota
	CurveArc
)

func (k CurveKind) String() string {
	switch k {
	case CurveLine:
		return "line"
	case CurveArc:
		return "arc"
	default:
		return "unknown"
	}
}

// Curve is an opaque handle to a sketch curve. A handle stays usable as a
// key after the kernel deletes or splits the curve, but every geometric
// query on it fails once IsValid reports false.
type Curve interface {
	ID() CurveID
	Kind() CurveKind
}

// Kernel is the abstract curve kernel for one sketch.
type Kernel interface {
	// Points
	CreatePoint(x, y, z float64) Point
	PointsEqual(a, b Point, tolerance float64) bool

	// Queries
	Endpoints(c Curve) (Point, Point, error)
	Length(c Curve) (float64, error)
	IsValid(c Curve) bool
	VisiblePoints() []Point
	Origin() Point

	// Construction
	AddLine(p1, p2 Point) (Curve, error)
	AddLineRectangle(p1, p2 Point) ([]Curve, error) // four edges, corner to corner
	AddArcByThreePoints(p1, mid, p2 Point) (Curve, error)

	// Editing
	TrimAtPoint(c Curve, p Point) ([]Curve, error) // surviving pieces, 0..2
	DeleteCurve(c Curve) error
}
