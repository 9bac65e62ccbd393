// Package geometry implements the planar polygon operations used for card
// segmentation: point ordering, line intersections, polygon simplification,
// bounding-quadrilateral search and corner-roundness measurement. It has no
// image or I/O dependencies.
package geometry

import (
	"math"
	"sort"
)

// Point is a planar coordinate.
type Point struct {
	X float64
	Y float64
}

// IsNaN reports whether either coordinate is NaN. Points with NaN
// coordinates are used as the "no intersection" sentinel.
func (p Point) IsNaN() bool {
	return math.IsNaN(p.X) || math.IsNaN(p.Y)
}

// Dist returns the Euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Polygon is an ordered closed sequence of vertices. The closing point is
// not stored; the edge from the last vertex back to the first is implied.
type Polygon []Point

// Clone returns a copy of the polygon.
func (poly Polygon) Clone() Polygon {
	out := make(Polygon, len(poly))
	copy(out, poly)
	return out
}

// Centroid returns the vertex average of the polygon.
func (poly Polygon) Centroid() Point {
	var cx, cy float64
	for _, p := range poly {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(poly))
	return Point{X: cx / n, Y: cy / n}
}

// SignedArea returns the shoelace area, positive for counter-clockwise
// vertex order.
func (poly Polygon) SignedArea() float64 {
	var s float64
	n := len(poly)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		s += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return s / 2
}

// Area returns the absolute polygon area.
func (poly Polygon) Area() float64 {
	return math.Abs(poly.SignedArea())
}

// Perimeter returns the total edge length, including the closing edge.
func (poly Polygon) Perimeter() float64 {
	var d float64
	n := len(poly)
	for i := 0; i < n; i++ {
		d += poly[i].Dist(poly[(i+1)%n])
	}
	return d
}

// ShortestEdge returns the length of the shortest edge.
func (poly Polygon) ShortestEdge() float64 {
	n := len(poly)
	shortest := math.Inf(1)
	for i := 0; i < n; i++ {
		if d := poly[i].Dist(poly[(i+1)%n]); d < shortest {
			shortest = d
		}
	}
	return shortest
}

// FormFactor is the ratio between polygon area and perimeter, scaled by the
// shortest edge length. Card-shaped quadrilaterals fall into a narrow band
// of this value regardless of image scale.
func (poly Polygon) FormFactor() float64 {
	return poly.Area() / (poly.Perimeter() * poly.ShortestEdge())
}

// Scale returns the polygon scaled uniformly about its centroid.
func (poly Polygon) Scale(factor float64) Polygon {
	c := poly.Centroid()
	out := make(Polygon, len(poly))
	for i, p := range poly {
		out[i] = Point{
			X: c.X + factor*(p.X-c.X),
			Y: c.Y + factor*(p.Y-c.Y),
		}
	}
	return out
}

// OrderPolygonPoints sorts the vertices by angle around their centroid,
// producing a consistent counter-clockwise cycle. Downstream segment
// intersection logic assumes this winding; unordered input would produce
// self-intersecting polygons.
func OrderPolygonPoints(poly Polygon) Polygon {
	c := poly.Centroid()
	out := poly.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		ai := math.Atan2(out[i].Y-c.Y, out[i].X-c.X)
		aj := math.Atan2(out[j].Y-c.Y, out[j].X-c.X)
		return ai < aj
	})
	return out
}

// LineIntersection returns the intersection of the two infinite lines
// through (p1, p2) and (p3, p4). When the direction vectors are exactly
// parallel (zero determinant, no tolerance) the NaN sentinel point is
// returned.
func LineIntersection(p1, p2, p3, p4 Point) Point {
	if (p1.X-p2.X)*(p3.Y-p4.Y) == (p1.Y-p2.Y)*(p3.X-p4.X) {
		return Point{X: math.NaN(), Y: math.NaN()}
	}
	det := (p1.X-p2.X)*(p3.Y-p4.Y) - (p1.Y-p2.Y)*(p3.X-p4.X)
	a := p1.X*p2.Y - p1.Y*p2.X
	b := p3.X*p4.Y - p3.Y*p4.X
	return Point{
		X: (a*(p3.X-p4.X) - (p1.X-p2.X)*b) / det,
		Y: (a*(p3.Y-p4.Y) - (p1.Y-p2.Y)*b) / det,
	}
}

// segmentIntersection returns the intersection of the segments a1-a2 and
// b1-b2, or the NaN sentinel when they do not cross.
func segmentIntersection(a1, a2, b1, b2 Point) Point {
	none := Point{X: math.NaN(), Y: math.NaN()}
	d1x, d1y := a2.X-a1.X, a2.Y-a1.Y
	d2x, d2y := b2.X-b1.X, b2.Y-b1.Y
	det := d1x*d2y - d1y*d2x
	if det == 0 {
		return none
	}
	t := ((b1.X-a1.X)*d2y - (b1.Y-a1.Y)*d2x) / det
	u := ((b1.X-a1.X)*d1y - (b1.Y-a1.Y)*d1x) / det
	const eps = 1e-9
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return none
	}
	return Point{X: a1.X + t*d1x, Y: a1.Y + t*d1y}
}

// SimplifyPolygon removes edges shorter than tol times the total perimeter
// by replacing the two neighboring edges with their line intersection,
// reducing the vertex count toward 4. Iteration stops when no edge is short
// enough, the vertex count reaches 4, or maxIter iterations have run
// (maxIter <= 0 means unlimited). If targetSegment is >= 0, exactly that
// edge is considered for removal and the iteration count is capped at one.
func SimplifyPolygon(in Polygon, tol float64, maxIter, targetSegment int) Polygon {
	poly := in.Clone()
	if targetSegment >= 0 {
		maxIter = 1
	}
	iter := 0
	for len(poly) > 4 {
		n := len(poly)
		dists := make([]float64, n)
		var total float64
		for i := 0; i < n; i++ {
			dists[i] = poly[i].Dist(poly[(i+1)%n])
			total += dists[i]
		}
		k := targetSegment
		if k < 0 {
			k = 0
			for i := 1; i < n; i++ {
				if dists[i] < dists[k] {
					k = i
				}
			}
		}
		if !(dists[k] < tol*total) {
			break
		}
		// Replace the short edge k (from vertex k to k+1) with the
		// intersection of its two neighboring edges.
		prevA := poly[(k-1+n)%n]
		prevB := poly[k]
		nextA := poly[(k+1)%n]
		nextB := poly[(k+2)%n]
		poly[k] = LineIntersection(prevA, prevB, nextA, nextB)
		drop := (k + 1) % n
		poly = append(poly[:drop], poly[drop+1:]...)
		iter++
		if maxIter > 0 && iter >= maxIter {
			break
		}
	}
	return poly
}

// ContainsPoint reports whether the convex polygon contains p, allowing
// points on the boundary. The polygon must be ordered counter-clockwise.
func (poly Polygon) ContainsPoint(p Point, eps float64) bool {
	n := len(poly)
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if cross < -eps {
			return false
		}
	}
	return true
}

// ContainsPolygon reports whether every vertex of other lies inside or on
// this convex polygon.
func (poly Polygon) ContainsPolygon(other Polygon, eps float64) bool {
	ccw := poly.oriented()
	for _, p := range other {
		if !ccw.ContainsPoint(p, eps) {
			return false
		}
	}
	return true
}

// oriented returns the polygon in counter-clockwise vertex order.
func (poly Polygon) oriented() Polygon {
	if poly.SignedArea() >= 0 {
		return poly
	}
	out := make(Polygon, len(poly))
	for i, p := range poly {
		out[len(poly)-1-i] = p
	}
	return out
}

// ClipPolygon clips the subject polygon against a convex clip polygon
// (Sutherland-Hodgman) and returns the intersection polygon, which may be
// empty.
func ClipPolygon(subject, clip Polygon) Polygon {
	out := subject.oriented()
	cp := clip.oriented()
	n := len(cp)
	for i := 0; i < n && len(out) > 0; i++ {
		a := cp[i]
		b := cp[(i+1)%n]
		input := out
		out = nil
		m := len(input)
		for j := 0; j < m; j++ {
			cur := input[j]
			next := input[(j+1)%m]
			curIn := (b.X-a.X)*(cur.Y-a.Y)-(b.Y-a.Y)*(cur.X-a.X) >= 0
			nextIn := (b.X-a.X)*(next.Y-a.Y)-(b.Y-a.Y)*(next.X-a.X) >= 0
			switch {
			case curIn && nextIn:
				out = append(out, next)
			case curIn && !nextIn:
				if is := LineIntersection(cur, next, a, b); !is.IsNaN() {
					out = append(out, is)
				}
			case !curIn && nextIn:
				if is := LineIntersection(cur, next, a, b); !is.IsNaN() {
					out = append(out, is)
				}
				out = append(out, next)
			}
		}
	}
	return out
}

// ConvexHull returns the convex hull of the given points as a
// counter-clockwise polygon (Andrew's monotone chain).
func ConvexHull(points []Point) Polygon {
	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	if len(pts) < 3 {
		return Polygon(pts)
	}
	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}
	var lower, upper []Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	return Polygon(hull)
}
