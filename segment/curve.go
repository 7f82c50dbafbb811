package segment

// arcSteps is the fixed sample count used for arc-length integration.
const arcSteps = 64

// lutSteps is the resolution of the arc-length lookup table used by
// SampleUniform.
const lutSteps = 128

// selfCheckSteps is the polyline resolution used by the
// self-intersection check. Kept coarser than lutSteps because the check
// is O(selfCheckSteps²).
const selfCheckSteps = 32

// Curve is a cubic Bezier with control points P0..P3. P0 and P3 are the
// physical endpoints that snap to junction nodes.
type Curve struct {
	P0 Point `json:"p0"`
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
	P3 Point `json:"p3"`
}

// Line returns a straight Curve from a to b, with the inner control
// points placed at thirds so that Evaluate is linear in t.
func Line(a, b Point) Curve {
	d := b.Sub(a)
	return Curve{
		P0: a,
		P1: a.Add(d.Scale(1.0 / 3.0)),
		P2: a.Add(d.Scale(2.0 / 3.0)),
		P3: b,
	}
}

// Evaluate returns the point on the curve at parameter t, clamped to [0,1].
func (c Curve) Evaluate(t float64) Point {
	t = clamp01(t)
	u := 1 - t
	uu := u * u
	tt := t * t
	// B(t) = u³P0 + 3u²tP1 + 3ut²P2 + t³P3
	p := c.P0.Scale(u * uu)
	p = p.Add(c.P1.Scale(3 * uu * t))
	p = p.Add(c.P2.Scale(3 * u * tt))
	p = p.Add(c.P3.Scale(t * tt))
	return p
}

// Tangent returns the first derivative of the curve at parameter t.
func (c Curve) Tangent(t float64) Point {
	t = clamp01(t)
	u := 1 - t
	p := c.P1.Sub(c.P0).Scale(3 * u * u)
	p = p.Add(c.P2.Sub(c.P1).Scale(6 * u * t))
	p = p.Add(c.P3.Sub(c.P2).Scale(3 * t * t))
	return p
}

// ArcLength approximates the curve length by sampling arcSteps chords.
func (c Curve) ArcLength() float64 {
	length := 0.0
	prev := c.P0
	for i := 1; i <= arcSteps; i++ {
		pt := c.Evaluate(float64(i) / arcSteps)
		length += pt.Dist(prev)
		prev = pt
	}
	return length
}

// SampleUniform returns n points spaced uniformly by arc length along
// the curve. An arc-length lookup table is built once and inverted per
// sample. n=0 returns nil; n=1 returns the curve midpoint.
func (c Curve) SampleUniform(n int) []Point {
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []Point{c.Evaluate(0.5)}
	}

	type entry struct{ dist, t float64 }
	lut := make([]entry, 0, lutSteps+1)
	lut = append(lut, entry{0, 0})
	prev := c.P0
	cumulative := 0.0
	for i := 1; i <= lutSteps; i++ {
		t := float64(i) / lutSteps
		pt := c.Evaluate(t)
		cumulative += pt.Dist(prev)
		lut = append(lut, entry{cumulative, t})
		prev = pt
	}

	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		target := float64(i) / float64(n-1) * cumulative
		// Binary search the first LUT entry at or past target.
		lo, hi := 1, len(lut)-1
		for lo < hi {
			mid := (lo + hi) / 2
			if lut[mid].dist < target {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		a, b := lut[lo-1], lut[lo]
		frac := 0.0
		if b.dist-a.dist > 1e-9 {
			frac = (target - a.dist) / (b.dist - a.dist)
		}
		points = append(points, c.Evaluate(a.t+frac*(b.t-a.t)))
	}
	return points
}

// selfIntersects reports whether the curve's sampled polyline crosses
// itself. Adjacent chords share an endpoint and are skipped.
func (c Curve) selfIntersects() bool {
	pts := make([]Point, selfCheckSteps+1)
	for i := 0; i <= selfCheckSteps; i++ {
		pts[i] = c.Evaluate(float64(i) / selfCheckSteps)
	}
	for i := 0; i < selfCheckSteps; i++ {
		for j := i + 2; j < selfCheckSteps; j++ {
			// A closed curve would make the first and last chords
			// adjacent too; the endpoint snap forbids closed curves, so
			// no special case is needed here.
			if chordsIntersect(pts[i], pts[i+1], pts[j], pts[j+1]) {
				return true
			}
		}
	}
	return false
}

// chordsIntersect reports proper intersection of chords ab and cd using
// orientation tests. Shared endpoints do not count.
func chordsIntersect(a, b, c, d Point) bool {
	o1 := orient(a, b, c)
	o2 := orient(a, b, d)
	o3 := orient(c, d, a)
	o4 := orient(c, d, b)
	return o1*o2 < 0 && o3*o4 < 0
}

// orient returns the sign of the cross product (b-a)×(c-a):
// >0 counter-clockwise, <0 clockwise, 0 collinear (within epsilon).
func orient(a, b, c Point) float64 {
	v := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	if v > 1e-9 {
		return 1
	}
	if v < -1e-9 {
		return -1
	}
	return 0
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
