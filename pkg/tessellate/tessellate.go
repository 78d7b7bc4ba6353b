// Package tessellate walks a profile and flattens its curves into
// polylines. One polyline is produced per live curve.
package tessellate

import (
	"fmt"

	"github.com/chazu/edgejitter/pkg/kernel"
	"github.com/chazu/edgejitter/pkg/profile"
)

// Tessellate flattens every live curve of the profile's sketch, in
// creation order. Named curves carry their name. The profile is never
// mutated.
func Tessellate(p *profile.Profile) ([]*kernel.Polyline, error) {
	if p == nil || p.Sketch == nil {
		return nil, nil
	}

	names := make(map[kernel.CurveID]string, len(p.Names))
	for name, c := range p.Names {
		names[c.ID()] = name
	}

	curves := p.Sketch.Curves()
	polys := make([]*kernel.Polyline, 0, len(curves))
	for _, c := range curves {
		pl, err := p.Sketch.Flatten(c)
		if err != nil {
			return nil, fmt.Errorf("tessellate: flatten %s curve %d: %w", c.Kind(), c.ID(), err)
		}
		if pl.IsEmpty() {
			continue
		}
		if name, ok := names[c.ID()]; ok {
			pl.CurveName = name
		} else {
			pl.CurveName = fmt.Sprintf("%s-%d", c.Kind(), c.ID())
		}
		polys = append(polys, pl)
	}
	return polys, nil
}

// TotalLength returns the summed length of all polylines.
func TotalLength(polys []*kernel.Polyline) float64 {
	sum := 0.0
	for _, pl := range polys {
		sum += pl.Length()
	}
	return sum
}
