package jitter

import (
	"math"

	"github.com/chazu/edgejitter/pkg/kernel"
)

// PointSource is the read-only view of a sketch the direction estimator needs.
type PointSource interface {
	VisiblePoints() []kernel.Point
	Origin() kernel.Point
}

// EstimateDirection picks the lateral side a notch on start-end should
// bulge toward. The side holding the sketch point farthest from the
// segment is taken to be the material: concave notches cut toward it,
// convex notches stand away from it. With no usable point the sketch
// origin stands in, nudged by one unit if the segment passes through it.
func EstimateDirection(src PointSource, start, end kernel.Point, dominant kernel.Axis, polarity Polarity) Direction {
	lateral := dominant.Other()
	linePos := (start.Coord(lateral) + end.Coord(lateral)) / 2

	var farthest, best float64
	found := false
	for _, p := range src.VisiblePoints() {
		if d := math.Abs(p.Coord(lateral) - linePos); d > best {
			best = d
			farthest = p.Coord(lateral)
			found = true
		}
	}
	if !found {
		farthest = src.Origin().Coord(lateral)
		if farthest == linePos {
			farthest++
		}
	}

	toward := farthest >= start.Coord(lateral)
	return directionAlong(lateral, toward == (polarity == Concave))
}
