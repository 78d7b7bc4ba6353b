package jitter

import (
	"math"

	"github.com/chazu/edgejitter/pkg/kernel"
)

// Direction is the lateral side a notch bulges toward.
type Direction int

const (
	PositiveX Direction = iota
	NegativeX
	PositiveY
	NegativeY
)

func (d Direction) String() string {
	switch d {
	case PositiveX:
		return "+x"
	case NegativeX:
		return "-x"
	case PositiveY:
		return "+y"
	case NegativeY:
		return "-y"
	default:
		return "unknown"
	}
}

// Axis returns the axis the direction points along.
func (d Direction) Axis() kernel.Axis {
	if d == PositiveX || d == NegativeX {
		return kernel.AxisX
	}
	return kernel.AxisY
}

// Sign returns +1 for the positive directions and -1 otherwise.
func (d Direction) Sign() float64 {
	if d == PositiveX || d == PositiveY {
		return 1
	}
	return -1
}

func directionAlong(a kernel.Axis, positive bool) Direction {
	switch {
	case a == kernel.AxisX && positive:
		return PositiveX
	case a == kernel.AxisX:
		return NegativeX
	case positive:
		return PositiveY
	default:
		return NegativeY
	}
}

// Polarity says whether a notch reads as cut into the material or as a
// bump standing out of it.
type Polarity int

const (
	Concave Polarity = iota
	Convex
)

func (p Polarity) String() string {
	switch p {
	case Concave:
		return "concave"
	case Convex:
		return "convex"
	default:
		return "unknown"
	}
}

// DominantAxis returns the axis along which start and end differ most.
// Ties go to Y.
func DominantAxis(start, end kernel.Point) kernel.Axis {
	if math.Abs(end.X-start.X) > math.Abs(end.Y-start.Y) {
		return kernel.AxisX
	}
	return kernel.AxisY
}
