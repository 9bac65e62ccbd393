package geometry

import (
	"fmt"
	"math"
)

// containEps is the slack used when testing whether hull vertices lie on a
// candidate quadrilateral boundary. Candidates are dilated before the test,
// so this only needs to absorb rounding in the cross products themselves.
const containEps = 1e-9

// quadCorners returns the four intersection points obtained by extending
// the polygon edges at the given indices. Edge m runs from vertex m to
// vertex m+1 (modulo the vertex count).
func quadCorners(poly Polygon, i, j, k, l int) [4]Point {
	n := len(poly)
	edge := func(m int) (Point, Point) {
		return poly[m%n], poly[(m+1)%n]
	}
	var out [4]Point
	pairs := [4][2]int{{i, j}, {j, k}, {k, l}, {l, i}}
	for c, pr := range pairs {
		a1, a2 := edge(pr[0])
		b1, b2 := edge(pr[1])
		out[c] = LineIntersection(a1, a2, b1, b2)
	}
	return out
}

// GenerateQuadCandidates generates bounding quadrilateral candidates for an
// ordered polygon from every strictly increasing 4-tuple of edge indices.
// A candidate is kept only if every polygon vertex lies within or on it; a
// 1.0001 uniform dilation about the candidate centroid absorbs floating
// point boundary misses. The search is O(n^4) in the vertex count, so the
// polygon must be simplified first.
func GenerateQuadCandidates(in Polygon) []Polygon {
	poly := OrderPolygonPoints(in)
	n := len(poly)
	var quads []Polygon
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				for l := k + 1; l < n; l++ {
					corners := quadCorners(poly, i, j, k, l)
					if corners[0].IsNaN() || corners[1].IsNaN() ||
						corners[2].IsNaN() || corners[3].IsNaN() {
						continue
					}
					quad := dilate(Polygon(corners[:]), 1.0001)
					quad = OrderPolygonPoints(quad)
					enclose := true
					for _, p := range poly {
						if !quad.ContainsPoint(p, containEps) {
							enclose = false
							break
						}
					}
					if enclose {
						quads = append(quads, quad)
					}
				}
			}
		}
	}
	return quads
}

// dilate scales the polygon about the average of its vertices.
func dilate(poly Polygon, factor float64) Polygon {
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

// BoundingQuad returns the minimum-area quadrilateral containing the convex
// hull polygon. The hull is simplified with the given tolerance before the
// candidate search. If maxVertices is positive and simplification leaves
// more vertices than that, the region is rejected rather than risking an
// unbounded O(n^4) search. An empty candidate set is reported as an error;
// the caller treats it as a per-region failure.
func BoundingQuad(hull Polygon, tol float64, maxVertices int) (Polygon, error) {
	simple := SimplifyPolygon(hull, tol, 0, -1)
	if maxVertices > 0 && len(simple) > maxVertices {
		return nil, fmt.Errorf("simplified hull has %d vertices, cap is %d", len(simple), maxVertices)
	}
	candidates := GenerateQuadCandidates(simple)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no enclosing quadrilateral found for %d-vertex hull", len(simple))
	}
	best := candidates[0]
	bestArea := best.Area()
	for _, q := range candidates[1:] {
		if a := q.Area(); a < bestArea {
			best = q
			bestArea = a
		}
	}
	return best, nil
}

// OrderCorners orders the four vertices of a quadrilateral as top-left,
// top-right, bottom-right, bottom-left. The top-left corner has the
// smallest coordinate sum, the bottom-right the largest; the top-right has
// the smallest y-x difference, the bottom-left the largest.
func OrderCorners(quad Polygon) [4]Point {
	var out [4]Point
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)
	for _, p := range quad {
		sum := p.X + p.Y
		diff := p.Y - p.X
		if sum < minSum {
			minSum = sum
			out[0] = p
		}
		if sum > maxSum {
			maxSum = sum
			out[2] = p
		}
		if diff < minDiff {
			minDiff = diff
			out[1] = p
		}
		if diff > maxDiff {
			maxDiff = diff
			out[3] = p
		}
	}
	return out
}
