package jitter

import (
	"math"

	"github.com/chazu/edgejitter/pkg/kernel"
)

func midpoint(a, b kernel.Point) kernel.Point {
	return kernel.Point{
		X: 0.5 * (a.X + b.X),
		Y: 0.5 * (a.Y + b.Y),
		Z: 0.5 * (a.Z + b.Z),
	}
}

// shift moves p by d along axis a.
func shift(p kernel.Point, a kernel.Axis, d float64) kernel.Point {
	return p.WithCoord(a, p.Coord(a)+d)
}

// onSegment reports whether p lies on the segment a-b within tol.
func onSegment(p, a, b kernel.Point, tol float64) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y) <= tol
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Min(math.Max(t, 0), 1)
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy)) <= tol
}

// trimBetween removes the span of seg delimited by a and b by trimming at
// their midpoint, and returns the surviving pieces of seg.
func trimBetween(k kernel.Kernel, seg kernel.Curve, a, b kernel.Point) ([]kernel.Curve, error) {
	return k.TrimAtPoint(seg, midpoint(a, b))
}

// notchBounds returns the two points delimiting a notch of the given
// half width on the segment, centered between start and end along the
// dominant axis. Both must lie on the segment.
func notchBounds(p Placement, halfWidth float64) (kernel.Point, kernel.Point, bool) {
	center := midpoint(p.Start, p.End)
	a := shift(center, p.Axis, -halfWidth)
	b := shift(center, p.Axis, halfWidth)
	ok := onSegment(a, p.Start, p.End, p.Tolerance) && onSegment(b, p.Start, p.End, p.Tolerance)
	return a, b, ok
}
