package geometry

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestOrderPolygonPoints(t *testing.T) {
	// Square vertices in a scrambled order.
	in := Polygon{
		{X: 1, Y: 0},
		{X: 0, Y: 1},
		{X: 1, Y: 1},
		{X: 0, Y: 0},
	}
	ordered := OrderPolygonPoints(in)
	if len(ordered) != 4 {
		t.Fatalf("expected 4 points, got %d", len(ordered))
	}

	// Angles around the centroid must be strictly increasing.
	c := ordered.Centroid()
	for i := 1; i < len(ordered); i++ {
		prev := math.Atan2(ordered[i-1].Y-c.Y, ordered[i-1].X-c.X)
		cur := math.Atan2(ordered[i].Y-c.Y, ordered[i].X-c.X)
		if cur <= prev {
			t.Errorf("angles not strictly increasing at %d: %f <= %f", i, cur, prev)
		}
	}

	// Re-applying the ordering must not change anything.
	again := OrderPolygonPoints(ordered)
	for i := range ordered {
		if ordered[i] != again[i] {
			t.Errorf("ordering not idempotent at %d: %v vs %v", i, ordered[i], again[i])
		}
	}
}

func TestLineIntersection(t *testing.T) {
	tests := []struct {
		name           string
		p1, p2, p3, p4 Point
		wantNaN        bool
		want           Point
	}{
		{
			name: "perpendicular axes",
			p1:   Point{0, 0}, p2: Point{2, 0},
			p3: Point{1, -1}, p4: Point{1, 1},
			want: Point{1, 0},
		},
		{
			name: "diagonals of unit square",
			p1:   Point{0, 0}, p2: Point{1, 1},
			p3: Point{1, 0}, p4: Point{0, 1},
			want: Point{0.5, 0.5},
		},
		{
			name: "parallel horizontal",
			p1:   Point{0, 0}, p2: Point{1, 0},
			p3: Point{0, 1}, p4: Point{1, 1},
			wantNaN: true,
		},
		{
			name: "coincident lines",
			p1:   Point{0, 0}, p2: Point{1, 1},
			p3: Point{2, 2}, p4: Point{3, 3},
			wantNaN: true,
		},
		{
			name: "intersection outside both segments",
			p1:   Point{0, 0}, p2: Point{1, 0},
			p3: Point{5, 1}, p4: Point{5, 2},
			want: Point{5, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineIntersection(tt.p1, tt.p2, tt.p3, tt.p4)
			if tt.wantNaN {
				if !got.IsNaN() {
					t.Fatalf("expected NaN sentinel, got %v", got)
				}
				return
			}
			if got.IsNaN() {
				t.Fatalf("unexpected NaN sentinel")
			}
			if !almostEqual(got.X, tt.want.X, 1e-9) || !almostEqual(got.Y, tt.want.Y, 1e-9) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			// The point must satisfy both line equations.
			for _, ln := range [][2]Point{{tt.p1, tt.p2}, {tt.p3, tt.p4}} {
				res := (ln[1].X-ln[0].X)*(got.Y-ln[0].Y) - (ln[1].Y-ln[0].Y)*(got.X-ln[0].X)
				if !almostEqual(res, 0, 1e-6) {
					t.Errorf("residual %g for line %v", res, ln)
				}
			}
		})
	}
}

// roundedSquare builds a unit-ish square whose corners are cut off by short
// chamfer edges, the shape a rounded card corner produces after hulling.
func roundedSquare(size, cut float64) Polygon {
	return Polygon{
		{X: cut, Y: 0},
		{X: size - cut, Y: 0},
		{X: size, Y: cut},
		{X: size, Y: size - cut},
		{X: size - cut, Y: size},
		{X: cut, Y: size},
		{X: 0, Y: size - cut},
		{X: 0, Y: cut},
	}
}

func TestSimplifyPolygon(t *testing.T) {
	poly := roundedSquare(100, 2)

	simple := SimplifyPolygon(poly, 0.05, 0, -1)
	if len(simple) > len(poly) {
		t.Fatalf("simplification increased vertex count: %d -> %d", len(poly), len(simple))
	}
	if len(simple) != 4 {
		t.Fatalf("expected 4 vertices after simplification, got %d", len(simple))
	}
	// Chamfer removal must recover the sharp square corners.
	want := Polygon{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	for _, w := range want {
		found := false
		for _, p := range simple {
			if almostEqual(p.X, w.X, 1e-6) && almostEqual(p.Y, w.Y, 1e-6) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("corner %v not recovered, got %v", w, simple)
		}
	}
}

func TestSimplifyPolygonNoShortEdges(t *testing.T) {
	// A regular hexagon has all edges equal; nothing is below tolerance.
	var hex Polygon
	for i := 0; i < 6; i++ {
		a := 2 * math.Pi * float64(i) / 6
		hex = append(hex, Point{X: math.Cos(a), Y: math.Sin(a)})
	}
	simple := SimplifyPolygon(hex, 0.05, 0, -1)
	if len(simple) != 6 {
		t.Errorf("expected untouched hexagon, got %d vertices", len(simple))
	}
}

func TestSimplifyPolygonTargetSegment(t *testing.T) {
	poly := roundedSquare(100, 2)
	// Removing one specific chamfer edge must drop exactly one vertex.
	simple := SimplifyPolygon(poly, 0.05, 10, 1)
	if len(simple) != len(poly)-1 {
		t.Errorf("targeted removal: expected %d vertices, got %d", len(poly)-1, len(simple))
	}
}

func TestSimplifyPolygonIterationBound(t *testing.T) {
	poly := roundedSquare(100, 2)
	// Termination in at most n-4 iterations means a cap of n-4 gives the
	// same result as an unlimited run.
	capped := SimplifyPolygon(poly, 0.05, len(poly)-4, -1)
	unlimited := SimplifyPolygon(poly, 0.05, 0, -1)
	if len(capped) != len(unlimited) {
		t.Errorf("cap of n-4 truncated the run: %d vs %d vertices", len(capped), len(unlimited))
	}
}

func TestGenerateQuadCandidates(t *testing.T) {
	square := Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	quads := GenerateQuadCandidates(square)
	if len(quads) == 0 {
		t.Fatal("no candidates for a plain square")
	}
	for _, q := range quads {
		if len(q) != 4 {
			t.Fatalf("candidate with %d vertices", len(q))
		}
		for _, p := range square {
			if !OrderPolygonPoints(q).ContainsPoint(p, 1e-6) {
				t.Errorf("candidate %v does not contain vertex %v", q, p)
			}
		}
	}
}

func TestBoundingQuad(t *testing.T) {
	tests := []struct {
		name string
		hull Polygon
	}{
		{"square", Polygon{{0, 0}, {50, 0}, {50, 50}, {0, 50}}},
		{"rounded square", roundedSquare(100, 2)},
		{"rotated rectangle", Polygon{{10, 0}, {40, 30}, {30, 40}, {0, 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quad, err := BoundingQuad(tt.hull, 0.05, 0)
			if err != nil {
				t.Fatalf("BoundingQuad failed: %v", err)
			}
			if len(quad) != 4 {
				t.Fatalf("expected quadrilateral, got %d vertices", len(quad))
			}
			if quad.Area() < tt.hull.Area()-1e-6 {
				t.Errorf("bounding quad area %f smaller than hull area %f",
					quad.Area(), tt.hull.Area())
			}
		})
	}
}

func TestBoundingQuadVertexCap(t *testing.T) {
	// A regular 16-gon with equal edges does not simplify; a tight cap
	// must reject it instead of running the O(n^4) search.
	var gon Polygon
	for i := 0; i < 16; i++ {
		a := 2 * math.Pi * float64(i) / 16
		gon = append(gon, Point{X: 100 * math.Cos(a), Y: 100 * math.Sin(a)})
	}
	if _, err := BoundingQuad(gon, 0.01, 8); err == nil {
		t.Error("expected vertex cap error")
	}
}

func TestConvexHull(t *testing.T) {
	pts := []Point{
		{0, 0}, {10, 0}, {10, 10}, {0, 10},
		{5, 5}, {3, 7}, {8, 2}, // interior points
	}
	hull := ConvexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("expected 4 hull vertices, got %d", len(hull))
	}
	if !almostEqual(hull.Area(), 100, 1e-9) {
		t.Errorf("hull area %f, want 100", hull.Area())
	}
	if hull.SignedArea() <= 0 {
		t.Error("hull not counter-clockwise")
	}
}

func TestClipPolygon(t *testing.T) {
	a := Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	b := Polygon{{5, 5}, {15, 5}, {15, 15}, {5, 15}}
	inter := ClipPolygon(a, b)
	if !almostEqual(inter.Area(), 25, 1e-9) {
		t.Errorf("intersection area %f, want 25", inter.Area())
	}

	// Disjoint polygons clip to nothing.
	c := Polygon{{20, 20}, {30, 20}, {30, 30}, {20, 30}}
	if got := ClipPolygon(a, c).Area(); got != 0 {
		t.Errorf("disjoint intersection area %f, want 0", got)
	}
}

func TestQuadCornerDiff(t *testing.T) {
	quad := Polygon{{0, 0}, {100, 0}, {100, 140}, {0, 140}}

	// A hull identical to the quad fills the corner wedges completely.
	sharp := QuadCornerDiff(quad, quad, 0.9)
	if !almostEqual(sharp, 0, 1e-6) {
		t.Errorf("sharp corners: got %f, want 0", sharp)
	}

	// Heavily chamfered corners leave most of the wedge area uncovered.
	rounded := QuadCornerDiff(Polygon{
		{25, 0}, {75, 0}, {100, 35}, {100, 105},
		{75, 140}, {25, 140}, {0, 105}, {0, 35},
	}, quad, 0.9)
	if rounded <= sharp {
		t.Errorf("rounded hull should score higher: %f <= %f", rounded, sharp)
	}
	if rounded <= 0.1 || rounded >= 1 {
		t.Errorf("rounded score %f outside plausible range", rounded)
	}
}

func TestFormFactor(t *testing.T) {
	// A 63x88 rectangle (standard card ratio) sits inside the acceptance
	// band; a square and a sliver do not.
	card := Polygon{{0, 0}, {63, 0}, {63, 88}, {0, 88}}
	if ff := card.FormFactor(); ff <= 0.27 || ff >= 0.32 {
		t.Errorf("card form factor %f outside (0.27, 0.32)", ff)
	}
	// A square scores 1/4, below the band.
	square := Polygon{{0, 0}, {50, 0}, {50, 50}, {0, 50}}
	if ff := square.FormFactor(); !almostEqual(ff, 0.25, 1e-9) {
		t.Errorf("square form factor %f, want 0.25", ff)
	}
	// A long sliver scores far below the band.
	sliver := Polygon{{0, 0}, {100, 0}, {100, 4}, {0, 4}}
	if ff := sliver.FormFactor(); ff >= 0.27 {
		t.Errorf("sliver form factor %f unexpectedly in card band", ff)
	}
}

func TestOrderCorners(t *testing.T) {
	quad := Polygon{{90, 10}, {10, 12}, {12, 110}, {88, 108}}
	c := OrderCorners(quad)
	if c[0] != (Point{10, 12}) {
		t.Errorf("top-left: got %v", c[0])
	}
	if c[1] != (Point{90, 10}) {
		t.Errorf("top-right: got %v", c[1])
	}
	if c[2] != (Point{88, 108}) {
		t.Errorf("bottom-right: got %v", c[2])
	}
	if c[3] != (Point{12, 110}) {
		t.Errorf("bottom-left: got %v", c[3])
	}
}
