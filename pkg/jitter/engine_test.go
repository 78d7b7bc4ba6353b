package jitter

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"testing"

	"cogentcore.org/core/base/randx"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/edgejitter/pkg/kernel"
	"github.com/chazu/edgejitter/pkg/kernel/planar"
)

func newTestEngine(t *testing.T, seed int64, opts ...Option) (*planar.Sketch, *Engine) {
	t.Helper()
	s := planar.New()
	e, err := New(s, append([]Option{WithSeed(seed)}, opts...)...)
	require.NoError(t, err)
	return s, e
}

func mustLine(t *testing.T, s *planar.Sketch, x0, y0, x1, y1 float64) kernel.Curve {
	t.Helper()
	c, err := s.AddLine(kernel.Pt(x0, y0), kernel.Pt(x1, y1))
	require.NoError(t, err)
	return c
}

// checkConservation asserts that fragments plus removed notch spans add up
// to the original length and that no two notches overlap.
func checkConservation(t *testing.T, s *planar.Sketch, res *Result, length float64) {
	t.Helper()
	sum := totalLength(t, s, res.Fragments)
	type span struct{ lo, hi float64 }
	var spans []span
	for _, c := range res.Cuts {
		sum += c.Notch.Width()
		lo := c.Notch.From.Coord(res.Axis)
		hi := c.Notch.To.Coord(res.Axis)
		spans = append(spans, span{math.Min(lo, hi), math.Max(lo, hi)})
	}
	assert.InDelta(t, length, sum, 1e-6)

	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
	for i := 1; i < len(spans); i++ {
		assert.LessOrEqual(t, spans[i-1].hi, spans[i].lo+1e-9, "notches %d and %d overlap", i-1, i)
	}
	for _, f := range res.Fragments {
		assert.True(t, s.IsValid(f))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		seg      [4]float64
		min, max float64
		field    string
	}{
		{"zero min", [4]float64{0, 0, 1000, 0}, 0, 5, "size"},
		{"negative min", [4]float64{0, 0, 1000, 0}, -1, 5, "size"},
		{"max at ceiling", [4]float64{0, 0, 1000, 0}, 1, 100, "size"},
		{"min above max", [4]float64{0, 0, 1000, 0}, 5, 4, "size"},
		{"nan max", [4]float64{0, 0, 1000, 0}, 1, math.NaN(), "size"},
		{"max at third of length", [4]float64{0, 0, 9, 0}, 1, 3, "max"},
		{"max above third of length", [4]float64{0, 0, 10, 0}, 1, 4, "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e := newTestEngine(t, 1)
			seg := mustLine(t, s, tt.seg[0], tt.seg[1], tt.seg[2], tt.seg[3])

			res, err := e.Run(Request{Segment: seg, MinSize: tt.min, MaxSize: tt.max})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrValidation)

			ve, ok := err.(*ValidationError)
			require.True(t, ok, "got %T", err)
			assert.Equal(t, tt.field, ve.Field)

			assert.True(t, s.IsValid(seg))
			assert.Equal(t, 1, s.CurveCount(), "sketch must be untouched")
		})
	}
}

func TestValidateReportsCeiling(t *testing.T) {
	s, e := newTestEngine(t, 1)
	seg := mustLine(t, s, 0, 0, 10, 0)

	_, err := e.Validate(Request{Segment: seg, MinSize: 1, MaxSize: 4})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.InDelta(t, 10.0/3, ve.Ceiling, 1e-12)
	assert.Contains(t, ve.Message, "3.333")
}

func TestValidateRejectsBadSegments(t *testing.T) {
	s, e := newTestEngine(t, 1)

	gone := mustLine(t, s, 0, 0, 10, 0)
	require.NoError(t, s.DeleteCurve(gone))
	_, err := e.Validate(Request{Segment: gone, MinSize: 1, MaxSize: 2})
	assert.ErrorIs(t, err, ErrValidation)

	arc, err := s.AddArcByThreePoints(kernel.Pt(-10, 0), kernel.Pt(0, 10), kernel.Pt(10, 0))
	require.NoError(t, err)
	_, err = e.Validate(Request{Segment: arc, MinSize: 1, MaxSize: 2})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.Validate(Request{MinSize: 1, MaxSize: 2})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSingleCut(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		s, e := newTestEngine(t, seed)
		seg := mustLine(t, s, 0, 0, 10, 0)

		res, err := e.Run(Request{Segment: seg, MinSize: 1, MaxSize: 2})
		require.NoError(t, err, "seed %d", seed)
		require.Len(t, res.Cuts, 1, "seed %d", seed)
		require.Len(t, res.Fragments, 2, "seed %d", seed)

		cut := res.Cuts[0]
		assert.Equal(t, seg.ID(), cut.Segment)
		assert.GreaterOrEqual(t, cut.Size, 1.0-1e-9)
		assert.LessOrEqual(t, cut.Size, 2.0+1e-9)
		assert.InDelta(t, cut.Size, cut.Notch.Width(), 1e-9)
		assert.InDelta(t, 5-cut.Size/2, cut.Notch.From.X, 1e-9, "notch is centered")
		assert.Equal(t, kernel.AxisY, cut.Direction.Axis())
		assert.False(t, s.IsValid(seg))
		checkConservation(t, s, res, 10)
	}
}

func TestRecursiveJitter(t *testing.T) {
	s, e := newTestEngine(t, 4)
	seg := mustLine(t, s, 0, 0, 10, 0)

	res, err := e.Run(Request{Segment: seg, MinSize: 1, MaxSize: 2, Recurse: true})
	require.NoError(t, err)
	assert.Greater(t, len(res.Cuts), 1)
	assert.GreaterOrEqual(t, len(res.Fragments), 3)
	checkConservation(t, s, res, 10)

	for _, f := range res.Fragments {
		l, err := s.Length(f)
		require.NoError(t, err)
		assert.LessOrEqual(t, l*guardRatio, 2.0+1e-9, "fragment of length %g could take another cut", l)
	}
}

func TestRecursionAddsMoreGeometry(t *testing.T) {
	single, e1 := newTestEngine(t, 9)
	_, err := e1.Run(Request{Segment: mustLine(t, single, 0, 0, 10, 0), MinSize: 1, MaxSize: 2})
	require.NoError(t, err)

	deep, e2 := newTestEngine(t, 9)
	_, err = e2.Run(Request{Segment: mustLine(t, deep, 0, 0, 10, 0), MinSize: 1, MaxSize: 2, Recurse: true})
	require.NoError(t, err)

	assert.Greater(t, deep.CurveCount(), single.CurveCount())
}

func TestVerticalSegment(t *testing.T) {
	s, e := newTestEngine(t, 2)
	seg := mustLine(t, s, 5, 0, 5, 30)

	res, err := e.Run(Request{Segment: seg, MinSize: 1, MaxSize: 5, Recurse: true})
	require.NoError(t, err)
	assert.Equal(t, kernel.AxisY, res.Axis)
	checkConservation(t, s, res, 30)
	for _, c := range res.Cuts {
		assert.Equal(t, kernel.AxisX, c.Direction.Axis())
	}
}

func TestLongSegmentTerminates(t *testing.T) {
	s, e := newTestEngine(t, 3)
	seg := mustLine(t, s, 0, 0, 90, 0)

	res, err := e.Run(Request{Segment: seg, MinSize: 1, MaxSize: 29, Recurse: true})
	require.NoError(t, err)
	// Every cut removes at least MinSize.
	assert.LessOrEqual(t, len(res.Cuts), 90)
	checkConservation(t, s, res, 90)
}

func TestDeterministicForSeed(t *testing.T) {
	type summary struct {
		Shape     ShapeKind
		Size      float64
		Polarity  Polarity
		Direction Direction
		Depth     float64
	}
	run := func() []summary {
		s, e := newTestEngine(t, 77)
		res, err := e.Run(Request{Segment: mustLine(t, s, 0, 0, 20, 0), MinSize: 0.5, MaxSize: 3, Recurse: true})
		require.NoError(t, err)
		var out []summary
		for _, c := range res.Cuts {
			out = append(out, summary{c.Shape, c.Size, c.Polarity, c.Direction, c.Notch.Depth})
		}
		return out
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("runs with the same seed differ (-first +second):\n%s", diff)
	}
}

func TestPolarityAndShapeCoverage(t *testing.T) {
	polarities := map[Polarity]bool{}
	shapes := map[ShapeKind]bool{}
	for seed := int64(1); seed <= 40; seed++ {
		s, e := newTestEngine(t, seed)
		res, err := e.Run(Request{Segment: mustLine(t, s, 0, 0, 10, 0), MinSize: 1, MaxSize: 2, Recurse: true})
		require.NoError(t, err)
		for _, c := range res.Cuts {
			polarities[c.Polarity] = true
			shapes[c.Shape] = true
		}
	}
	assert.Len(t, polarities, 2)
	assert.Len(t, shapes, 3)
}

func TestSlantedSegmentFails(t *testing.T) {
	s, e := newTestEngine(t, 1)
	seg := mustLine(t, s, 0, 0, 10, 4)

	res, err := e.Run(Request{Segment: seg, MinSize: 1, MaxSize: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeometry)
	require.NotNil(t, res)
	assert.Empty(t, res.Cuts)
	assert.True(t, s.IsValid(seg))
	assert.Equal(t, 1, s.CurveCount())
}

func TestNewRejectsEmptyRegistry(t *testing.T) {
	_, err := New(planar.New(), WithRegistry(NewRegistry()))
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSingleShapeRegistry(t *testing.T) {
	s, e := newTestEngine(t, 5, WithRegistry(NewRegistry(Triangle{})))
	res, err := e.Run(Request{Segment: mustLine(t, s, 0, 0, 10, 0), MinSize: 1, MaxSize: 2, Recurse: true})
	require.NoError(t, err)
	for _, c := range res.Cuts {
		assert.Equal(t, ShapeTriangle, c.Shape)
	}
}

func TestRunJitterNotifies(t *testing.T) {
	var msgs []string
	s, e := newTestEngine(t, 1, WithNotifier(NotifierFunc(func(m string) { msgs = append(msgs, m) })))
	seg := mustLine(t, s, 0, 0, 10, 0)

	ok, err := e.RunJitter(seg, 1, 5, true)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrValidation)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "1/3")

	ok, err = e.RunSingleCut(seg, 1, 2)
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestRunLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, e := newTestEngine(t, 1, WithLogger(logger))

	_, err := e.Run(Request{Segment: mustLine(t, s, 0, 0, 10, 0), MinSize: 1, MaxSize: 2})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "jitter start")
	assert.Contains(t, out, "msg=notch")
	assert.Contains(t, out, "jitter done")
}

// failingAfter delegates to Rectangle for its first n calls and fails after.
type failingAfter struct {
	n     int
	calls int
}

func (f *failingAfter) Kind() ShapeKind { return ShapeRectangle }

func (f *failingAfter) Generate(k kernel.Kernel, rnd randx.Rand, p Placement) (Notch, []kernel.Curve, error) {
	f.calls++
	if f.calls > f.n {
		return Notch{}, nil, geometryErr(ShapeRectangle, nil, "refusing call %d", f.calls)
	}
	return Rectangle{}.Generate(k, rnd, p)
}

func TestAbortedRunReportsSurvivingPieces(t *testing.T) {
	gen := &failingAfter{n: 1}
	s, e := newTestEngine(t, 6, WithRegistry(NewRegistry(gen)))
	seg := mustLine(t, s, 0, 0, 30, 0)

	res, err := e.Run(Request{Segment: seg, MinSize: 1, MaxSize: 2, Recurse: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeometry)
	require.NotNil(t, res)
	assert.Equal(t, 2, gen.calls)
	require.Len(t, res.Cuts, 1)

	// Both pieces of the first cut survive: the one the generator refused
	// and the one still waiting its turn.
	require.Len(t, res.Fragments, 2)
	checkConservation(t, s, res, 30)

	var onLine int
	for _, c := range s.Curves() {
		a, b, err := s.Endpoints(c)
		require.NoError(t, err)
		if a.Y == 0 && b.Y == 0 && c.Kind() == kernel.CurveLine {
			onLine++
		}
	}
	assert.Equal(t, onLine, len(res.Fragments))
}

func TestAbortedFirstCutKeepsSegment(t *testing.T) {
	s, e := newTestEngine(t, 6, WithRegistry(NewRegistry(&failingAfter{n: 0})))
	seg := mustLine(t, s, 0, 0, 30, 0)

	res, err := e.Run(Request{Segment: seg, MinSize: 1, MaxSize: 2, Recurse: true})
	assert.ErrorIs(t, err, ErrGeometry)
	require.NotNil(t, res)
	assert.Empty(t, res.Cuts)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, seg.ID(), res.Fragments[0].ID())
}

func TestNotifyUnwrapsValidationErrors(t *testing.T) {
	var msgs []string
	_, e := newTestEngine(t, 1, WithNotifier(NotifierFunc(func(m string) { msgs = append(msgs, m) })))

	ve := &ValidationError{Field: "max", Message: "max too large"}
	e.notifyValidation(fmt.Errorf("script line 3: %w", ve))
	e.notifyValidation(geometryErr(ShapeTriangle, nil, "not a validation failure"))
	assert.Equal(t, []string{"max too large"}, msgs)
}
