package jitter

import (
	"cogentcore.org/core/base/randx"
)

// Registry is the set of notch shapes the engine picks from, uniformly.
type Registry struct {
	generators []ShapeGenerator
}

// NewRegistry returns a registry holding gens in order.
func NewRegistry(gens ...ShapeGenerator) *Registry {
	return &Registry{generators: append([]ShapeGenerator(nil), gens...)}
}

// DefaultRegistry returns the rectangle, hemicircle and triangle shapes.
func DefaultRegistry() *Registry {
	return NewRegistry(Rectangle{}, HemiCircle{}, Triangle{})
}

// Register adds g, replacing any generator of the same kind.
func (r *Registry) Register(g ShapeGenerator) {
	for i, cur := range r.generators {
		if cur.Kind() == g.Kind() {
			r.generators[i] = g
			return
		}
	}
	r.generators = append(r.generators, g)
}

// Len returns the number of registered shapes.
func (r *Registry) Len() int { return len(r.generators) }

// Kinds lists the registered shapes in registration order.
func (r *Registry) Kinds() []ShapeKind {
	out := make([]ShapeKind, len(r.generators))
	for i, g := range r.generators {
		out[i] = g.Kind()
	}
	return out
}

// Pick returns a uniformly chosen generator.
func (r *Registry) Pick(rnd randx.Rand) (ShapeGenerator, error) {
	if len(r.generators) == 0 {
		return nil, &ConfigurationError{Message: "no notch shapes registered"}
	}
	return r.generators[rnd.Intn(len(r.generators))], nil
}
