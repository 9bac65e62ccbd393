package geometry

// QuadCornerDiff measures how rounded a convex hull is relative to its
// bounding quadrilateral. For each quad corner a triangular wedge is built:
// its apex is the corner and its base is a chord through the point
// regionSize of the way from the quad center to the corner, orthogonal to
// the center-to-corner axis. The result is one minus the fraction of the
// total wedge area covered by the hull: near zero for a sharp-cornered
// card, approaching one for heavily rounded corners.
func QuadCornerDiff(hull, quad Polygon, regionSize float64) float64 {
	c := quad.Centroid()
	var quadCornerArea, hullCornerArea float64
	for _, corner := range quad {
		interior := Point{
			X: c.X + regionSize*(corner.X-c.X),
			Y: c.Y + regionSize*(corner.Y-c.Y),
		}
		// Chord through the interior point, orthogonal to the
		// corner-to-center axis. Its half-length equals the
		// corner-to-center distance, so it always spans the two quad
		// edges adjacent to the corner.
		p0 := Point{X: interior.X + (corner.Y - c.Y), Y: interior.Y - (corner.X - c.X)}
		p1 := Point{X: interior.X - (corner.Y - c.Y), Y: interior.Y + (corner.X - c.X)}

		b0, b1, ok := chordEndpoints(quad, p0, p1)
		if !ok {
			continue
		}
		wedge := Polygon{b0, b1, corner}
		quadCornerArea += wedge.Area()
		hullCornerArea += ClipPolygon(wedge, hull).Area()
	}
	if quadCornerArea == 0 {
		return 1
	}
	return 1 - hullCornerArea/quadCornerArea
}

// chordEndpoints intersects the chord segment p0-p1 with the quadrilateral
// boundary and returns the two crossing points.
func chordEndpoints(quad Polygon, p0, p1 Point) (Point, Point, bool) {
	n := len(quad)
	var hits []Point
	for i := 0; i < n; i++ {
		a := quad[i]
		b := quad[(i+1)%n]
		is := segmentIntersection(p0, p1, a, b)
		if is.IsNaN() {
			continue
		}
		dup := false
		for _, h := range hits {
			if h.Dist(is) < 1e-9 {
				dup = true
				break
			}
		}
		if !dup {
			hits = append(hits, is)
		}
	}
	if len(hits) < 2 {
		return Point{}, Point{}, false
	}
	return hits[0], hits[1], true
}
