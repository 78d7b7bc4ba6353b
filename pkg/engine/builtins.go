package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"cogentcore.org/core/base/randx"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/edgejitter/pkg/jitter"
	"github.com/chazu/edgejitter/pkg/kernel"
	"github.com/chazu/edgejitter/pkg/kernel/planar"
	"github.com/chazu/edgejitter/pkg/profile"
)

// ---------------------------------------------------------------------------
// Evaluation session
// ---------------------------------------------------------------------------

// session is the state one evaluation's builtins share.
type session struct {
	sketch  *planar.Sketch
	profile *profile.Profile
	rnd     randx.Rand
	ceiling float64
	log     *slog.Logger
}

func newSession(s Settings, log *slog.Logger) *session {
	var opts []planar.Option
	if s.Tolerance > 0 {
		opts = append(opts, planar.WithTolerance(s.Tolerance))
	}
	if s.ArcSegments > 0 {
		opts = append(opts, planar.WithArcSegments(s.ArcSegments))
	}
	sk := planar.New(opts...)
	p := profile.New(sk)
	if s.MinSize > 0 {
		p.Defaults.MinSize = s.MinSize
	}
	if s.MaxSize > 0 {
		p.Defaults.MaxSize = s.MaxSize
	}
	p.Defaults.Recurse = s.Recurse
	p.Defaults.Tolerance = sk.Tolerance()

	var rnd randx.Rand = randx.NewGlobalRand()
	if s.Seed != 0 {
		rnd = randx.NewSysRand(s.Seed)
	}
	return &session{sketch: sk, profile: p, rnd: rnd, ceiling: s.SizeCeiling, log: log}
}

// jitterEngine builds a cut engine over the session sketch. Engines share
// the session's random source, so (seed n) affects every later run.
func (s *session) jitterEngine() (*jitter.Engine, error) {
	return jitter.New(s.sketch,
		jitter.WithRand(s.rnd),
		jitter.WithLogger(s.log),
		jitter.WithTolerance(s.sketch.Tolerance()),
		jitter.WithSizeCeiling(s.ceiling),
	)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpCurve wraps a sketch curve so it can be passed between builtins.
type sexpCurve struct {
	curve kernel.Curve
	name  string
}

func (c *sexpCurve) SexpString(ps *zygo.PrintState) string {
	if c.name != "" {
		return fmt.Sprintf("(curve %q)", c.name)
	}
	return fmt.Sprintf("(%s #%d)", c.curve.Kind(), c.curve.ID())
}
func (c *sexpCurve) Type() *zygo.RegisteredType { return nil }

// sexpPoint wraps a free sketch point.
type sexpPoint struct {
	pt kernel.Point
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(point %g %g)", p.pt.X, p.pt.Y)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword with no value is a flag.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// floats extracts n positional numbers.
func (a kwArgs) floats(fn string, n int) ([]float64, error) {
	if len(a.positional) != n {
		return nil, fmt.Errorf("%s requires exactly %d numbers, got %d", fn, n, len(a.positional))
	}
	out := make([]float64, n)
	for i, s := range a.positional {
		f, err := toFloat64(s)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

func (a kwArgs) number(fn, key string, def float64) (float64, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return f, nil
}

func (a kwArgs) flag(fn, key string, def bool) (bool, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return b, nil
}

func (a kwArgs) name(fn string) (string, error) {
	v, ok := a.kw["name"]
	if !ok {
		return "", nil
	}
	s, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("%s: name: %w", fn, err)
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false; a bare trailing keyword counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toCurve extracts a curve from a sexpCurve.
func toCurve(s zygo.Sexp) (*sexpCurve, error) {
	if c, ok := s.(*sexpCurve); ok {
		return c, nil
	}
	return nil, fmt.Errorf("expected curve, got %T (%s)", s, s.SexpString(nil))
}

func curveList(curves []*sexpCurve) zygo.Sexp {
	out := make([]zygo.Sexp, len(curves))
	for i, c := range curves {
		out[i] = c
	}
	return zygo.MakeList(out)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// rectEdgeNames follows the drawing order of AddLineRectangle from the
// lower-left corner.
var rectEdgeNames = [4]string{"bottom", "right", "top", "left"}

// registerBuiltins installs the jitter script builtins into a zygomys
// environment. They build geometry in the session's sketch and record
// names and runs on its profile.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {
	p := s.profile

	// named records c under the :name argument, if any.
	named := func(fn, name string, c kernel.Curve) (*sexpCurve, error) {
		if name != "" {
			if err := p.Name(name, c); err != nil {
				return nil, fmt.Errorf("%s: %w", fn, err)
			}
		}
		return &sexpCurve{curve: c, name: name}, nil
	}

	// -----------------------------------------------------------------------
	// (point x y)
	// -----------------------------------------------------------------------
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		xy, err := parseArgs(args).floats("point", 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		pt := s.sketch.CreatePoint(xy[0], xy[1], 0)
		s.sketch.AddPoint(pt)
		return &sexpPoint{pt: pt}, nil
	})

	// -----------------------------------------------------------------------
	// (line x0 y0 x1 y1 :name "edge")
	// -----------------------------------------------------------------------
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := pa.floats("line", 4)
		if err != nil {
			return zygo.SexpNull, err
		}
		n, err := pa.name("line")
		if err != nil {
			return zygo.SexpNull, err
		}
		c, err := s.sketch.AddLine(kernel.Pt(v[0], v[1]), kernel.Pt(v[2], v[3]))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: %w", err)
		}
		return named("line", n, c)
	})

	// -----------------------------------------------------------------------
	// (rect x0 y0 x1 y1 :name "box") -> (bottom right top left)
	// -----------------------------------------------------------------------
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := pa.floats("rect", 4)
		if err != nil {
			return zygo.SexpNull, err
		}
		n, err := pa.name("rect")
		if err != nil {
			return zygo.SexpNull, err
		}
		lo := kernel.Pt(math.Min(v[0], v[2]), math.Min(v[1], v[3]))
		hi := kernel.Pt(math.Max(v[0], v[2]), math.Max(v[1], v[3]))
		edges, err := s.sketch.AddLineRectangle(lo, hi)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: %w", err)
		}
		out := make([]*sexpCurve, len(edges))
		for i, e := range edges {
			edgeName := ""
			if n != "" {
				edgeName = n + "/" + rectEdgeNames[i]
			}
			if out[i], err = named("rect", edgeName, e); err != nil {
				return zygo.SexpNull, err
			}
		}
		return curveList(out), nil
	})

	// -----------------------------------------------------------------------
	// (arc x0 y0 xm ym x1 y1 :name "bend")
	// -----------------------------------------------------------------------
	env.AddFunction("arc", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := pa.floats("arc", 6)
		if err != nil {
			return zygo.SexpNull, err
		}
		n, err := pa.name("arc")
		if err != nil {
			return zygo.SexpNull, err
		}
		c, err := s.sketch.AddArcByThreePoints(kernel.Pt(v[0], v[1]), kernel.Pt(v[2], v[3]), kernel.Pt(v[4], v[5]))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %w", err)
		}
		return named("arc", n, c)
	})

	// -----------------------------------------------------------------------
	// (curve "edge")
	// -----------------------------------------------------------------------
	env.AddFunction("curve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("curve requires a name argument")
		}
		n, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("curve: name: %w", err)
		}
		c := p.Lookup(n)
		if c == nil {
			return zygo.SexpNull, fmt.Errorf("curve: no curve named %q", n)
		}
		return &sexpCurve{curve: c, name: n}, nil
	})

	// -----------------------------------------------------------------------
	// (seed 42)
	// -----------------------------------------------------------------------
	env.AddFunction("seed", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("seed requires exactly 1 argument, got %d", len(args))
		}
		v, ok := args[0].(*zygo.SexpInt)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("seed: expected integer, got %T", args[0])
		}
		s.rnd = randx.NewSysRand(v.Val)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (defaults :min 1 :max 2 :recurse true)
	// -----------------------------------------------------------------------
	env.AddFunction("defaults", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		d := p.Defaults
		var err error
		if d.MinSize, err = pa.number("defaults", "min", d.MinSize); err != nil {
			return zygo.SexpNull, err
		}
		if d.MaxSize, err = pa.number("defaults", "max", d.MaxSize); err != nil {
			return zygo.SexpNull, err
		}
		if d.Recurse, err = pa.flag("defaults", "recurse", d.Recurse); err != nil {
			return zygo.SexpNull, err
		}
		p.Defaults = d
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (jitter (curve "edge") :min 1 :max 2 :recurse true :name "j")
	// (cut (curve "edge") :min 1 :max 2)
	// -----------------------------------------------------------------------
	runJitter := func(fn string, args []zygo.Sexp, single bool) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("%s requires a curve argument", fn)
		}
		target, err := toCurve(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
		}
		req := jitter.Request{Segment: target.curve}
		if req.MinSize, err = pa.number(fn, "min", p.Defaults.MinSize); err != nil {
			return zygo.SexpNull, err
		}
		if req.MaxSize, err = pa.number(fn, "max", p.Defaults.MaxSize); err != nil {
			return zygo.SexpNull, err
		}
		if !single {
			if req.Recurse, err = pa.flag(fn, "recurse", p.Defaults.Recurse); err != nil {
				return zygo.SexpNull, err
			}
		}
		n, err := pa.name(fn)
		if err != nil {
			return zygo.SexpNull, err
		}

		je, err := s.jitterEngine()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
		}
		res, err := je.Run(req)

		var ve *jitter.ValidationError
		if errors.As(err, &ve) {
			return zygo.SexpNull, fmt.Errorf("%s: %s", fn, ve.Message)
		}
		rec := profile.RunRecord{
			Target:     target.curve.ID(),
			TargetName: target.name,
			MinSize:    req.MinSize,
			MaxSize:    req.MaxSize,
			Recurse:    req.Recurse,
		}
		if err != nil {
			if !errors.Is(err, jitter.ErrGeometry) {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			rec.Err = err.Error()
			s.log.Warn("jitter run failed", "target", target.curve.ID(), "err", err)
		}
		if res != nil {
			rec.Cuts = len(res.Cuts)
			rec.Fragments = res.Fragments
		}
		p.AddRun(rec)

		out := make([]*sexpCurve, len(rec.Fragments))
		for i, f := range rec.Fragments {
			fragName := ""
			if n != "" {
				fragName = fmt.Sprintf("%s/%d", n, i)
			}
			if out[i], err = named(fn, fragName, f); err != nil {
				return zygo.SexpNull, err
			}
		}
		return curveList(out), nil
	}

	env.AddFunction("jitter", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return runJitter("jitter", args, false)
	})
	env.AddFunction("cut", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return runJitter("cut", args, true)
	})
}
