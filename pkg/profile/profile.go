package profile

import (
	"fmt"
	"sort"

	"github.com/chazu/edgejitter/pkg/kernel"
)

// Default run parameters, used when a script does not set its own.
const (
	DefaultMinSize   = 1.0
	DefaultMaxSize   = 2.0
	DefaultTolerance = 1e-6
)

// Sketch is a kernel that can also enumerate and flatten its curves.
type Sketch interface {
	kernel.Kernel
	Curves() []kernel.Curve
	Flatten(c kernel.Curve) (*kernel.Polyline, error)
}

// Defaults contains profile-wide settings.
type Defaults struct {
	MinSize   float64 `json:"min_size"`
	MaxSize   float64 `json:"max_size"`
	Recurse   bool    `json:"recurse"`
	Tolerance float64 `json:"tolerance"`
	Units     string  `json:"units"` // "mm" (only option)
}

// RunRecord describes one jitter run against a curve.
type RunRecord struct {
	Target     kernel.CurveID
	TargetName string
	MinSize    float64
	MaxSize    float64
	Recurse    bool
	Cuts       int
	Fragments  []kernel.Curve
	Err        string // set when the run failed part way
}

// Profile is the product of one script evaluation. A new profile is built
// for every evaluation.
type Profile struct {
	Sketch   Sketch
	Names    map[string]kernel.Curve
	Runs     []RunRecord
	Defaults Defaults
	Version  uint64
}

// New creates an empty profile over s with default settings.
func New(s Sketch) *Profile {
	return &Profile{
		Sketch: s,
		Names:  make(map[string]kernel.Curve),
		Defaults: Defaults{
			MinSize:   DefaultMinSize,
			MaxSize:   DefaultMaxSize,
			Recurse:   true,
			Tolerance: DefaultTolerance,
			Units:     "mm",
		},
	}
}

// Name assigns name to c. Names are unique within a profile.
func (p *Profile) Name(name string, c kernel.Curve) error {
	if name == "" {
		return fmt.Errorf("profile: empty curve name")
	}
	if prev, ok := p.Names[name]; ok && prev.ID() != c.ID() {
		return fmt.Errorf("profile: name %q already refers to curve %d", name, prev.ID())
	}
	p.Names[name] = c
	return nil
}

// Lookup returns the curve with the given name, or nil.
func (p *Profile) Lookup(name string) kernel.Curve {
	return p.Names[name]
}

// MustLookup returns the curve with the given name, or panics.
func (p *Profile) MustLookup(name string) kernel.Curve {
	c := p.Lookup(name)
	if c == nil {
		panic(fmt.Sprintf("profile: no curve named %q", name))
	}
	return c
}

// NameOf returns the name given to the curve with id, if any.
func (p *Profile) NameOf(id kernel.CurveID) string {
	for name, c := range p.Names {
		if c.ID() == id {
			return name
		}
	}
	return ""
}

// SortedNames returns all curve names in lexical order.
func (p *Profile) SortedNames() []string {
	names := make([]string, 0, len(p.Names))
	for n := range p.Names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AddRun appends a run record.
func (p *Profile) AddRun(r RunRecord) {
	p.Runs = append(p.Runs, r)
}

// CurveCount returns the number of live curves in the sketch.
func (p *Profile) CurveCount() int {
	return len(p.Sketch.Curves())
}

// CutCount returns the total number of notches over all runs.
func (p *Profile) CutCount() int {
	n := 0
	for _, r := range p.Runs {
		n += r.Cuts
	}
	return n
}
