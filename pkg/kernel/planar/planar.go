// Package planar implements the kernel.Kernel interface as an in-memory
// 2D sketch. Point arithmetic uses the github.com/deadsy/sdfx vector
// types and sketches can be exported as DXF through sdfx's renderer.
package planar

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/edgejitter/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Sketch)(nil)

const (
	// DefaultTolerance is the distance below which two points coincide.
	DefaultTolerance = 1e-6

	// defaultArcSegments controls how finely arcs are flattened.
	defaultArcSegments = 32
)

var (
	// ErrInvalidCurve is returned for curves that were deleted, split or
	// never belonged to this sketch.
	ErrInvalidCurve = errors.New("curve is not valid in this sketch")

	// ErrDegenerate is returned when a primitive would have zero extent.
	ErrDegenerate = errors.New("degenerate geometry")

	// ErrNotOnCurve is returned when a trim point does not lie on the curve.
	ErrNotOnCurve = errors.New("point does not lie on curve")

	// ErrUnsupported is returned for operations a curve kind cannot perform.
	ErrUnsupported = errors.New("operation not supported for curve kind")
)

// curveRef implements kernel.Curve.
type curveRef struct {
	id   kernel.CurveID
	kind kernel.CurveKind
}

func (c curveRef) ID() kernel.CurveID { return c.id }
func (c curveRef) Kind() kernel.CurveKind { return c.kind }
func (c curveRef) String() string { return fmt.Sprintf("%s#%d", c.kind, c.id) }

func ref(id kernel.CurveID, e *entry) curveRef {
	return curveRef{id: id, kind: e.kind}
}

// entry is the stored geometry of one curve. Arcs keep their through
// point so that the original three-point definition can be recovered.
type entry struct {
	kind  kernel.CurveKind
	p0    v2.Vec
	p1    v2.Vec
	mid   v2.Vec
	valid bool
}

// Sketch implements kernel.Kernel for a single in-memory sketch.
type Sketch struct {
	tolerance   float64
	arcSegments int
	origin      v2.Vec

	nextID kernel.CurveID
	curves map[kernel.CurveID]*entry
	order  []kernel.CurveID
	points []v2.Vec
}

// Option configures a Sketch.
type Option func(*Sketch)

// WithTolerance sets the point coincidence tolerance.
func WithTolerance(tol float64) Option {
	return func(s *Sketch) {
		if tol > 0 {
			s.tolerance = tol
		}
	}
}

// WithArcSegments sets the number of straight pieces used when flattening an arc.
func WithArcSegments(n int) Option {
	return func(s *Sketch) {
		if n > 0 {
			s.arcSegments = n
		}
	}
}

// New returns an empty sketch with its origin at (0, 0).
func New(opts ...Option) *Sketch {
	s := &Sketch{
		tolerance:   DefaultTolerance,
		arcSegments: defaultArcSegments,
		curves:      make(map[kernel.CurveID]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func toVec(p kernel.Point) v2.Vec {
	return v2.Vec{X: p.X, Y: p.Y}
}

func toPoint(v v2.Vec) kernel.Point {
	return kernel.Point{X: v.X, Y: v.Y}
}

// Tolerance returns the sketch's point coincidence tolerance.
func (s *Sketch) Tolerance() float64 {
	return s.tolerance
}

// CreatePoint returns a point value. Sketch points are values, so nothing is stored.
func (s *Sketch) CreatePoint(x, y, z float64) kernel.Point {
	return kernel.Point{X: x, Y: y, Z: z}
}

// PointsEqual reports whether a and b coincide within tolerance.
func (s *Sketch) PointsEqual(a, b kernel.Point, tolerance float64) bool {
	return toVec(a).Equals(toVec(b), tolerance)
}

// AddPoint places a free, visible sketch point.
func (s *Sketch) AddPoint(p kernel.Point) {
	s.points = append(s.points, toVec(p))
}

// lookup returns the entry of a valid curve.
func (s *Sketch) lookup(c kernel.Curve) (*entry, error) {
	if c == nil {
		return nil, fmt.Errorf("planar: nil curve: %w", ErrInvalidCurve)
	}
	e, ok := s.curves[c.ID()]
	if !ok || !e.valid {
		return nil, fmt.Errorf("planar: curve %d: %w", c.ID(), ErrInvalidCurve)
	}
	return e, nil
}

func (s *Sketch) add(e *entry) kernel.Curve {
	s.nextID++
	id := s.nextID
	e.valid = true
	s.curves[id] = e
	s.order = append(s.order, id)
	return ref(id, e)
}

// IsValid reports whether c is a live curve of this sketch.
func (s *Sketch) IsValid(c kernel.Curve) bool {
	_, err := s.lookup(c)
	return err == nil
}

// Endpoints returns the start and end point of a curve.
func (s *Sketch) Endpoints(c kernel.Curve) (kernel.Point, kernel.Point, error) {
	e, err := s.lookup(c)
	if err != nil {
		return kernel.Point{}, kernel.Point{}, err
	}
	return toPoint(e.p0), toPoint(e.p1), nil
}

// Length returns the curve length.
func (s *Sketch) Length(c kernel.Curve) (float64, error) {
	e, err := s.lookup(c)
	if err != nil {
		return 0, err
	}
	if e.kind == kernel.CurveArc {
		a, err := circleThrough(e.p0, e.mid, e.p1, s.tolerance)
		if err != nil {
			return 0, err
		}
		return a.radius * math.Abs(a.sweep), nil
	}
	return e.p1.Sub(e.p0).Length(), nil
}

// Origin returns the sketch origin.
func (s *Sketch) Origin() kernel.Point {
	return toPoint(s.origin)
}

// VisiblePoints returns the free sketch points followed by the distinct
// endpoints of every valid curve, in creation order.
func (s *Sketch) VisiblePoints() []kernel.Point {
	var seen []v2.Vec
	addUnique := func(v v2.Vec) {
		for _, o := range seen {
			if o.Equals(v, s.tolerance) {
				return
			}
		}
		seen = append(seen, v)
	}
	for _, p := range s.points {
		addUnique(p)
	}
	for _, id := range s.order {
		e := s.curves[id]
		if !e.valid {
			continue
		}
		addUnique(e.p0)
		addUnique(e.p1)
	}
	pts := make([]kernel.Point, len(seen))
	for i, v := range seen {
		pts[i] = toPoint(v)
	}
	return pts
}

// Curves returns the valid curves in creation order.
func (s *Sketch) Curves() []kernel.Curve {
	var out []kernel.Curve
	for _, id := range s.order {
		if e := s.curves[id]; e.valid {
			out = append(out, ref(id, e))
		}
	}
	return out
}

// CurveCount returns the number of valid curves.
func (s *Sketch) CurveCount() int {
	n := 0
	for _, e := range s.curves {
		if e.valid {
			n++
		}
	}
	return n
}

// AddLine adds a straight line from p1 to p2.
func (s *Sketch) AddLine(p1, p2 kernel.Point) (kernel.Curve, error) {
	a, b := toVec(p1), toVec(p2)
	if a.Equals(b, s.tolerance) {
		return nil, fmt.Errorf("planar: line %v-%v: %w", p1, p2, ErrDegenerate)
	}
	return s.add(&entry{kind: kernel.CurveLine, p0: a, p1: b}), nil
}

// AddLineRectangle adds the four edges of the axis-aligned rectangle with
// opposite corners p1 and p2. Edges are returned in drawing order starting
// at p1.
func (s *Sketch) AddLineRectangle(p1, p2 kernel.Point) ([]kernel.Curve, error) {
	if math.Abs(p2.X-p1.X) <= s.tolerance || math.Abs(p2.Y-p1.Y) <= s.tolerance {
		return nil, fmt.Errorf("planar: rectangle %v-%v: %w", p1, p2, ErrDegenerate)
	}
	corners := []v2.Vec{
		{X: p1.X, Y: p1.Y},
		{X: p2.X, Y: p1.Y},
		{X: p2.X, Y: p2.Y},
		{X: p1.X, Y: p2.Y},
	}
	edges := make([]kernel.Curve, 0, 4)
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		edges = append(edges, s.add(&entry{kind: kernel.CurveLine, p0: a, p1: b}))
	}
	return edges, nil
}

// AddArcByThreePoints adds the circular arc from p1 through mid to p2.
func (s *Sketch) AddArcByThreePoints(p1, mid, p2 kernel.Point) (kernel.Curve, error) {
	a, m, b := toVec(p1), toVec(mid), toVec(p2)
	if _, err := circleThrough(a, m, b, s.tolerance); err != nil {
		return nil, err
	}
	return s.add(&entry{kind: kernel.CurveArc, p0: a, p1: b, mid: m}), nil
}

// DeleteCurve removes a curve from the sketch.
func (s *Sketch) DeleteCurve(c kernel.Curve) error {
	e, err := s.lookup(c)
	if err != nil {
		return err
	}
	e.valid = false
	return nil
}

// TrimAtPoint removes the span of line c that encloses p. The span is
// bounded by the nearest break points on either side of p, where a break
// point is an endpoint of another valid curve lying on c. The original
// curve is invalidated and the surviving pieces are returned as new
// curves: none when the whole line is enclosed, one when the span touches
// an endpoint, two otherwise.
func (s *Sketch) TrimAtPoint(c kernel.Curve, p kernel.Point) ([]kernel.Curve, error) {
	e, err := s.lookup(c)
	if err != nil {
		return nil, err
	}
	if e.kind != kernel.CurveLine {
		return nil, fmt.Errorf("planar: trim %s curve %d: %w", e.kind, c.ID(), ErrUnsupported)
	}

	length := e.p1.Sub(e.p0).Length()
	tp, ok := s.paramOnLine(e, toVec(p), length)
	if !ok {
		return nil, fmt.Errorf("planar: trim curve %d at %v: %w", c.ID(), p, ErrNotOnCurve)
	}

	lo, hi := 0.0, 1.0
	for _, id := range s.order {
		o := s.curves[id]
		if id == c.ID() || !o.valid {
			continue
		}
		for _, v := range []v2.Vec{o.p0, o.p1} {
			t, ok := s.paramOnLine(e, v, length)
			if !ok || t*length <= s.tolerance || (1-t)*length <= s.tolerance {
				continue
			}
			switch {
			case t < tp && t > lo:
				lo = t
			case t > tp && t < hi:
				hi = t
			}
		}
	}

	e.valid = false
	var pieces []kernel.Curve
	if lo > 0 {
		pieces = append(pieces, s.add(&entry{kind: kernel.CurveLine, p0: e.p0, p1: lerp(e.p0, e.p1, lo)}))
	}
	if hi < 1 {
		pieces = append(pieces, s.add(&entry{kind: kernel.CurveLine, p0: lerp(e.p0, e.p1, hi), p1: e.p1}))
	}
	return pieces, nil
}

// paramOnLine projects v onto the line of e and returns its parameter
// when v lies on the segment within tolerance.
func (s *Sketch) paramOnLine(e *entry, v v2.Vec, length float64) (float64, bool) {
	d := e.p1.Sub(e.p0)
	t := v.Sub(e.p0).Dot(d) / (length * length)
	if t < -s.tolerance/length || t > 1+s.tolerance/length {
		return 0, false
	}
	if v.Sub(lerp(e.p0, e.p1, t)).Length() > s.tolerance {
		return 0, false
	}
	return math.Min(math.Max(t, 0), 1), true
}

func lerp(a, b v2.Vec, t float64) v2.Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}

// ---------------------------------------------------------------------------
// Arcs
// ---------------------------------------------------------------------------

// arcGeom is the circle-based description of a three-point arc.
type arcGeom struct {
	center v2.Vec
	radius float64
	start  float64 // angle of the first endpoint, radians
	sweep  float64 // signed sweep; positive is counter-clockwise
}

func (a arcGeom) at(f float64) v2.Vec {
	theta := a.start + f*a.sweep
	return v2.Vec{X: a.center.X + a.radius*math.Cos(theta), Y: a.center.Y + a.radius*math.Sin(theta)}
}

// circleThrough returns the arc from a through m to b.
func circleThrough(a, m, b v2.Vec, tol float64) (arcGeom, error) {
	d := 2 * (a.X*(m.Y-b.Y) + m.X*(b.Y-a.Y) + b.X*(a.Y-m.Y))
	if math.Abs(d) <= tol*tol {
		return arcGeom{}, fmt.Errorf("planar: arc through collinear points: %w", ErrDegenerate)
	}
	a2 := a.X*a.X + a.Y*a.Y
	m2 := m.X*m.X + m.Y*m.Y
	b2 := b.X*b.X + b.Y*b.Y
	center := v2.Vec{
		X: (a2*(m.Y-b.Y) + m2*(b.Y-a.Y) + b2*(a.Y-m.Y)) / d,
		Y: (a2*(b.X-m.X) + m2*(a.X-b.X) + b2*(m.X-a.X)) / d,
	}
	angle := func(v v2.Vec) float64 {
		return math.Atan2(v.Y-center.Y, v.X-center.X)
	}
	ta, tm, tb := angle(a), angle(m), angle(b)
	ccw := normAngle(tb - ta)
	sweep := ccw
	if normAngle(tm-ta) > ccw {
		sweep = ccw - 2*math.Pi
	}
	return arcGeom{
		center: center,
		radius: a.Sub(center).Length(),
		start:  ta,
		sweep:  sweep,
	}, nil
}

// normAngle maps an angle into [0, 2π).
func normAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	return theta
}

// ArcGeometry returns the center, radius, start angle and signed sweep
// (radians, counter-clockwise positive) of an arc curve.
func (s *Sketch) ArcGeometry(c kernel.Curve) (center kernel.Point, radius, start, sweep float64, err error) {
	e, err := s.lookup(c)
	if err != nil {
		return kernel.Point{}, 0, 0, 0, err
	}
	if e.kind != kernel.CurveArc {
		return kernel.Point{}, 0, 0, 0, fmt.Errorf("planar: arc geometry of %s curve %d: %w", e.kind, c.ID(), ErrUnsupported)
	}
	a, err := circleThrough(e.p0, e.mid, e.p1, s.tolerance)
	if err != nil {
		return kernel.Point{}, 0, 0, 0, err
	}
	return toPoint(a.center), a.radius, a.start, a.sweep, nil
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

// Flatten converts a curve to a polyline. Lines produce two vertices,
// arcs produce arcSegments+1 vertices.
func (s *Sketch) Flatten(c kernel.Curve) (*kernel.Polyline, error) {
	e, err := s.lookup(c)
	if err != nil {
		return nil, err
	}
	pl := &kernel.Polyline{CurveID: c.ID(), Kind: e.kind}
	if e.kind == kernel.CurveLine {
		pl.Points = []float64{e.p0.X, e.p0.Y, e.p1.X, e.p1.Y}
		return pl, nil
	}
	a, err := circleThrough(e.p0, e.mid, e.p1, s.tolerance)
	if err != nil {
		return nil, err
	}
	pl.Points = make([]float64, 0, 2*(s.arcSegments+1))
	for i := 0; i <= s.arcSegments; i++ {
		v := a.at(float64(i) / float64(s.arcSegments))
		pl.Points = append(pl.Points, v.X, v.Y)
	}
	return pl, nil
}

// ExportDXF writes every valid curve of the sketch to a DXF file,
// flattening arcs into line pieces.
func (s *Sketch) ExportDXF(path string) error {
	d := render.NewDXF(path)
	for _, c := range s.Curves() {
		pl, err := s.Flatten(c)
		if err != nil {
			return fmt.Errorf("planar: export curve %d: %w", c.ID(), err)
		}
		for i := 1; i < pl.VertexCount(); i++ {
			d.Line(&sdf.Line2{toVec(pl.Vertex(i - 1)), toVec(pl.Vertex(i))})
		}
	}
	if err := d.Save(); err != nil {
		return fmt.Errorf("planar: save dxf %s: %w", path, err)
	}
	return nil
}
