package jitter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"cogentcore.org/core/base/randx"

	"github.com/chazu/edgejitter/pkg/kernel"
)

// Defaults for the engine options.
const (
	DefaultTolerance = 1e-6
	// DefaultSizeCeiling is the exclusive upper bound on the max cut size,
	// in sketch units.
	DefaultSizeCeiling = 100.0
	// guardRatio is the share of a segment a cut must stay under.
	guardRatio = 0.75
)

// Request is a single jitter invocation against one line segment.
type Request struct {
	Segment kernel.Curve
	MinSize float64
	MaxSize float64
	Recurse bool
}

// Cut records one notch applied to a segment.
type Cut struct {
	Segment   kernel.CurveID // the piece that was cut
	Shape     ShapeKind
	Size      float64
	Polarity  Polarity
	Direction Direction
	Notch     Notch
}

// Result summarizes a run. Fragments are the pieces of the original
// segment that survive in the sketch.
type Result struct {
	Axis      kernel.Axis
	Cuts      []Cut
	Fragments []kernel.Curve
	Skipped   int // stale work items that were no longer valid curves
}

// Notifier receives user-facing messages, such as validation failures.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Engine applies jitter to line segments in a sketch.
type Engine struct {
	k        kernel.Kernel
	rnd      randx.Rand
	registry *Registry
	log      *slog.Logger
	notify   Notifier
	tol      float64
	ceiling  float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source. A seeded randx.NewSysRand makes runs
// reproducible.
func WithRand(r randx.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rnd = r
		}
	}
}

// WithSeed is shorthand for WithRand(randx.NewSysRand(seed)).
func WithSeed(seed int64) Option {
	return WithRand(randx.NewSysRand(seed))
}

// WithRegistry sets the notch shapes to pick from.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notify = n }
}

// WithTolerance sets the distance under which points are considered equal.
func WithTolerance(tol float64) Option {
	return func(e *Engine) {
		if tol > 0 {
			e.tol = tol
		}
	}
}

// WithSizeCeiling sets the exclusive upper bound on the max cut size.
func WithSizeCeiling(c float64) Option {
	return func(e *Engine) {
		if c > 0 {
			e.ceiling = c
		}
	}
}

// New creates an engine over k. It fails with a ConfigurationError when
// the shape registry is empty.
func New(k kernel.Kernel, opts ...Option) (*Engine, error) {
	e := &Engine{
		k:        k,
		rnd:      randx.NewGlobalRand(),
		registry: DefaultRegistry(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		tol:      DefaultTolerance,
		ceiling:  DefaultSizeCeiling,
	}
	for _, opt := range opts {
		opt(e)
	}
	if k == nil {
		return nil, &ConfigurationError{Message: "nil sketch kernel"}
	}
	if e.registry == nil || e.registry.Len() == 0 {
		return nil, &ConfigurationError{Message: "no notch shapes registered"}
	}
	return e, nil
}

// Kernel returns the sketch the engine edits.
func (e *Engine) Kernel() kernel.Kernel { return e.k }

// Validate checks a request without touching the sketch and returns the
// segment length.
func (e *Engine) Validate(req Request) (float64, error) {
	if req.Segment == nil || !e.k.IsValid(req.Segment) {
		return 0, &ValidationError{Field: "segment", Message: "no valid segment selected"}
	}
	if req.Segment.Kind() != kernel.CurveLine {
		return 0, &ValidationError{Field: "segment", Message: fmt.Sprintf("%s selected, a line segment is required", req.Segment.Kind())}
	}
	if math.IsNaN(req.MinSize) || math.IsNaN(req.MaxSize) || math.IsInf(req.MinSize, 0) || math.IsInf(req.MaxSize, 0) {
		return 0, &ValidationError{Field: "size", Message: "cut sizes must be finite numbers"}
	}
	if req.MinSize <= 0 || req.MaxSize >= e.ceiling || req.MinSize > req.MaxSize {
		return 0, &ValidationError{
			Field:   "size",
			Message: fmt.Sprintf("ensure 0 < min (%g) <= max (%g) < %g", req.MinSize, req.MaxSize, e.ceiling),
		}
	}
	length, err := e.k.Length(req.Segment)
	if err != nil {
		return 0, &ValidationError{Field: "segment", Message: err.Error()}
	}
	if ceiling := length / 3; req.MaxSize >= ceiling {
		return 0, &ValidationError{
			Field:   "max",
			Message: fmt.Sprintf("max cut %g must be less than 1/3 of the segment length (%.4g)", req.MaxSize, ceiling),
			Ceiling: ceiling,
		}
	}
	return length, nil
}

// Run validates req and applies notches to its segment. With Recurse
// set, every surviving piece is cut again until each is too short for
// another cut. Pieces are processed depth first.
//
// A GeometryError aborts the run. Cuts made before it remain in the
// sketch and are reported in the partial result, whose Fragments then
// hold every piece still valid, including the one that failed.
func (e *Engine) Run(req Request) (*Result, error) {
	if _, err := e.Validate(req); err != nil {
		return nil, err
	}
	start, end, err := e.k.Endpoints(req.Segment)
	if err != nil {
		return nil, &ValidationError{Field: "segment", Message: err.Error()}
	}

	res := &Result{Axis: DominantAxis(start, end)}
	e.log.Info("jitter start",
		"segment", req.Segment.ID(), "axis", res.Axis,
		"min", req.MinSize, "max", req.MaxSize, "recurse", req.Recurse)

	stack := []kernel.Curve{req.Segment}
	for len(stack) > 0 {
		seg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !e.k.IsValid(seg) {
			res.Skipped++
			continue
		}
		cut, rest, ok, err := e.cutOnce(seg, res.Axis, req.MinSize, req.MaxSize)
		if err != nil {
			e.log.Warn("jitter aborted", "segment", seg.ID(), "cuts", len(res.Cuts), "err", err)
			stack = append(stack, seg)
			for i := len(stack) - 1; i >= 0; i-- {
				if e.k.IsValid(stack[i]) {
					res.Fragments = append(res.Fragments, stack[i])
				}
			}
			return res, err
		}
		if !ok {
			res.Fragments = append(res.Fragments, seg)
			continue
		}
		res.Cuts = append(res.Cuts, cut)

		if !req.Recurse {
			res.Fragments = append(res.Fragments, rest...)
			break
		}
		// Reverse so the first piece is cut next.
		for i := len(rest) - 1; i >= 0; i-- {
			stack = append(stack, rest[i])
		}
	}

	e.log.Info("jitter done", "cuts", len(res.Cuts), "fragments", len(res.Fragments), "skipped", res.Skipped)
	return res, nil
}

// cutOnce applies one notch to seg. ok is false when seg is too short for
// the drawn size, in which case the sketch is left untouched.
func (e *Engine) cutOnce(seg kernel.Curve, axis kernel.Axis, minSize, maxSize float64) (Cut, []kernel.Curve, bool, error) {
	start, end, err := e.k.Endpoints(seg)
	if err != nil {
		return Cut{}, nil, false, geometryErr(-1, err, "segment endpoints")
	}
	length, err := e.k.Length(seg)
	if err != nil {
		return Cut{}, nil, false, geometryErr(-1, err, "segment length")
	}

	size := RandomSize(e.rnd, minSize, maxSize)
	if length*guardRatio <= size {
		e.log.Debug("segment too short", "segment", seg.ID(), "length", length, "size", size)
		return Cut{}, nil, false, nil
	}

	polarity := Polarity(e.rnd.Intn(2))
	dir := EstimateDirection(e.k, start, end, axis, polarity)
	gen, err := e.registry.Pick(e.rnd)
	if err != nil {
		return Cut{}, nil, false, err
	}

	notch, rest, err := gen.Generate(e.k, e.rnd, Placement{
		Segment:   seg,
		Start:     start,
		End:       end,
		Axis:      axis,
		Size:      size,
		Direction: dir,
		Tolerance: e.tol,
	})
	if err != nil {
		return Cut{}, nil, false, err
	}

	e.log.Debug("notch",
		"segment", seg.ID(), "shape", gen.Kind(), "size", size,
		"polarity", polarity, "direction", dir, "depth", notch.Depth, "pieces", len(rest))
	return Cut{
		Segment:   seg.ID(),
		Shape:     gen.Kind(),
		Size:      size,
		Polarity:  polarity,
		Direction: dir,
		Notch:     notch,
	}, rest, true, nil
}

// RunJitter is the command entry point. It reports success, and sends
// validation failures to the notifier as well as returning them.
func (e *Engine) RunJitter(seg kernel.Curve, minSize, maxSize float64, recurse bool) (bool, error) {
	_, err := e.Run(Request{Segment: seg, MinSize: minSize, MaxSize: maxSize, Recurse: recurse})
	if err != nil {
		e.notifyValidation(err)
		return false, err
	}
	return true, nil
}

// notifyValidation forwards a validation failure anywhere in err's chain
// to the notifier.
func (e *Engine) notifyValidation(err error) {
	var ve *ValidationError
	if e.notify != nil && errors.As(err, &ve) {
		e.notify.Notify(ve.Message)
	}
}

// RunSingleCut applies exactly one notch to seg, if it is long enough.
func (e *Engine) RunSingleCut(seg kernel.Curve, minSize, maxSize float64) (bool, error) {
	return e.RunJitter(seg, minSize, maxSize, false)
}
