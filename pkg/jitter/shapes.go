package jitter

import (
	"math"

	"cogentcore.org/core/base/randx"

	"github.com/chazu/edgejitter/pkg/kernel"
)

// ShapeKind identifies a notch profile.
type ShapeKind int

const (
	ShapeRectangle ShapeKind = iota
	ShapeHemiCircle
	ShapeTriangle
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRectangle:
		return "rectangle"
	case ShapeHemiCircle:
		return "hemicircle"
	case ShapeTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Placement describes where a notch goes: centered between Start and End
// (the endpoints of Segment), Size wide along Axis, bulging toward Direction.
type Placement struct {
	Segment   kernel.Curve
	Start     kernel.Point
	End       kernel.Point
	Axis      kernel.Axis
	Size      float64
	Direction Direction
	Tolerance float64
}

// Notch is the geometry one generator added to the sketch.
type Notch struct {
	Kind   ShapeKind
	Curves []kernel.Curve
	// From and To delimit the span removed from the segment.
	From  kernel.Point
	To    kernel.Point
	Depth float64
}

// Width is the span the notch removed from its segment.
func (n Notch) Width() float64 {
	return math.Hypot(n.To.X-n.From.X, n.To.Y-n.From.Y)
}

// ShapeGenerator draws one notch profile onto a line segment and trims the
// segment underneath it. It returns the notch and the surviving pieces of
// the segment. Boundary checks run before the sketch is touched.
type ShapeGenerator interface {
	Kind() ShapeKind
	Generate(k kernel.Kernel, rnd randx.Rand, p Placement) (Notch, []kernel.Curve, error)
}

func checkPlacement(kind ShapeKind, p Placement) error {
	if p.Direction.Axis() != p.Axis.Other() {
		return geometryErr(kind, nil, "direction %s is not lateral to the %s axis", p.Direction, p.Axis)
	}
	if p.Size <= 0 {
		return geometryErr(kind, nil, "non-positive size %g", p.Size)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Rectangle
// ----------------------------------------------------------------------------

// Rectangle cuts a rectangular slot. Its depth is twice a height drawn
// from [w/10, w], where w is half the cut size.
type Rectangle struct{}

func (Rectangle) Kind() ShapeKind { return ShapeRectangle }

func (Rectangle) Generate(k kernel.Kernel, rnd randx.Rand, p Placement) (Notch, []kernel.Curve, error) {
	if err := checkPlacement(ShapeRectangle, p); err != nil {
		return Notch{}, nil, err
	}
	w := p.Size / 2
	a, b, ok := notchBounds(p, w)
	if !ok {
		return Notch{}, nil, geometryErr(ShapeRectangle, nil, "notch bounds %s, %s leave the segment", a, b)
	}

	lateral := p.Axis.Other()
	depth := 2 * RandomSize(rnd, 0.1*w, w)
	far := shift(b, lateral, p.Direction.Sign()*depth)

	edges, err := k.AddLineRectangle(a, far)
	if err != nil {
		return Notch{}, nil, geometryErr(ShapeRectangle, err, "add rectangle")
	}

	// The edge lying on the segment is the cut edge.
	lineAt := p.Start.Coord(lateral)
	var cut kernel.Curve
	var from, to kernel.Point
	walls := make([]kernel.Curve, 0, len(edges))
	for _, e := range edges {
		e0, e1, err := k.Endpoints(e)
		if err != nil {
			return Notch{}, nil, geometryErr(ShapeRectangle, err, "rectangle edge")
		}
		if cut == nil && DominantAxis(e0, e1) == p.Axis &&
			math.Abs(e0.Coord(lateral)-lineAt) <= p.Tolerance &&
			math.Abs(e1.Coord(lateral)-lineAt) <= p.Tolerance {
			cut, from, to = e, e0, e1
			continue
		}
		walls = append(walls, e)
	}
	if cut == nil {
		return Notch{}, nil, geometryErr(ShapeRectangle, nil, "no rectangle edge lies on the segment")
	}

	rest, err := trimBetween(k, p.Segment, from, to)
	if err != nil {
		return Notch{}, nil, geometryErr(ShapeRectangle, err, "trim segment")
	}
	if err := k.DeleteCurve(cut); err != nil {
		return Notch{}, nil, geometryErr(ShapeRectangle, err, "delete cut edge")
	}
	return Notch{Kind: ShapeRectangle, Curves: walls, From: a, To: b, Depth: depth}, rest, nil
}

// ----------------------------------------------------------------------------
// HemiCircle
// ----------------------------------------------------------------------------

// HemiCircle cuts a circular arc through both notch bounds and a peak
// whose height is drawn from [w/10, w].
type HemiCircle struct{}

func (HemiCircle) Kind() ShapeKind { return ShapeHemiCircle }

func (HemiCircle) Generate(k kernel.Kernel, rnd randx.Rand, p Placement) (Notch, []kernel.Curve, error) {
	if err := checkPlacement(ShapeHemiCircle, p); err != nil {
		return Notch{}, nil, err
	}
	w := p.Size / 2
	a, b, ok := notchBounds(p, w)
	if !ok {
		return Notch{}, nil, geometryErr(ShapeHemiCircle, nil, "notch bounds %s, %s leave the segment", a, b)
	}

	h := RandomSize(rnd, 0.1*w, w)
	peak := shift(midpoint(a, b), p.Axis.Other(), p.Direction.Sign()*h)
	arc, err := k.AddArcByThreePoints(a, peak, b)
	if err != nil {
		return Notch{}, nil, geometryErr(ShapeHemiCircle, err, "add arc")
	}

	rest, err := trimBetween(k, p.Segment, a, b)
	if err != nil {
		return Notch{}, nil, geometryErr(ShapeHemiCircle, err, "trim segment")
	}
	return Notch{Kind: ShapeHemiCircle, Curves: []kernel.Curve{arc}, From: a, To: b, Depth: h}, rest, nil
}

// ----------------------------------------------------------------------------
// Triangle
// ----------------------------------------------------------------------------

// Triangle cuts a V whose apex height is drawn from a tenth up to the full
// height of the equilateral triangle on the notch base.
type Triangle struct{}

func (Triangle) Kind() ShapeKind { return ShapeTriangle }

func (Triangle) Generate(k kernel.Kernel, rnd randx.Rand, p Placement) (Notch, []kernel.Curve, error) {
	if err := checkPlacement(ShapeTriangle, p); err != nil {
		return Notch{}, nil, err
	}
	w := p.Size / 2
	a, b, ok := notchBounds(p, w)
	if !ok {
		return Notch{}, nil, geometryErr(ShapeTriangle, nil, "notch bounds %s, %s leave the segment", a, b)
	}

	full := math.Sqrt(3) * w
	h := RandomSize(rnd, 0.1*full, full)
	apex := shift(midpoint(a, b), p.Axis.Other(), p.Direction.Sign()*h)

	l1, err := k.AddLine(a, apex)
	if err != nil {
		return Notch{}, nil, geometryErr(ShapeTriangle, err, "add first side")
	}
	l2, err := k.AddLine(apex, b)
	if err != nil {
		return Notch{}, nil, geometryErr(ShapeTriangle, err, "add second side")
	}

	rest, err := trimBetween(k, p.Segment, a, b)
	if err != nil {
		return Notch{}, nil, geometryErr(ShapeTriangle, err, "trim segment")
	}
	return Notch{Kind: ShapeTriangle, Curves: []kernel.Curve{l1, l2}, From: a, To: b, Depth: h}, rest, nil
}
