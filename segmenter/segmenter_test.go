package segmenter

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"gocv.io/x/gocv"

	"cardscan/config"
	"cardscan/geometry"
)

// cardScene draws a filled white rectangle on a black background, the
// simplest sharp-cornered card stand-in.
func cardScene(t *testing.T, w, h int, card image.Rectangle) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&img, card, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
	return img
}

func TestSegmentImageSharpRectangle(t *testing.T) {
	card := image.Rect(130, 100, 270, 300)
	img := cardScene(t, 400, 400, card)
	defer img.Close()

	s := New(config.Default())
	candidates, err := s.SegmentImage(context.Background(), "synthetic", img)
	if err != nil {
		t.Fatalf("SegmentImage failed: %v", err)
	}
	defer func() {
		for _, c := range candidates {
			c.Close()
		}
	}()

	if len(candidates) != 1 {
		t.Fatalf("expected exactly 1 candidate, got %d", len(candidates))
	}
	cand := candidates[0]

	// Every detected quad corner must be close to a known card corner.
	known := []geometry.Point{
		{X: float64(card.Min.X), Y: float64(card.Min.Y)},
		{X: float64(card.Max.X), Y: float64(card.Min.Y)},
		{X: float64(card.Max.X), Y: float64(card.Max.Y)},
		{X: float64(card.Min.X), Y: float64(card.Max.Y)},
	}
	const tol = 2.5
	for _, p := range cand.BoundingQuad {
		best := math.Inf(1)
		for _, k := range known {
			if d := p.Dist(k); d < best {
				best = d
			}
		}
		if best > tol {
			t.Errorf("quad corner %v is %.2f px from any known corner", p, best)
		}
	}

	hull := geometry.ConvexHull(cand.Contour)
	roundness := geometry.QuadCornerDiff(hull, cand.BoundingQuad, 0.9)
	if roundness > 0.05 {
		t.Errorf("sharp rectangle scored roundness %.3f, want ~0", roundness)
	}

	wantFraction := float64(card.Dx()*card.Dy()) / (400.0 * 400.0)
	if math.Abs(cand.ImageAreaFraction-wantFraction) > 0.02 {
		t.Errorf("area fraction %.3f, want ~%.3f", cand.ImageAreaFraction, wantFraction)
	}
	if cand.Image.Empty() {
		t.Error("candidate has no rectified image")
	}
	if cand.Name != "unknown" {
		t.Errorf("fresh candidate named %q", cand.Name)
	}
}

func TestSegmentImageRejectsSquare(t *testing.T) {
	// A square region fails the card form-factor band.
	img := cardScene(t, 400, 400, image.Rect(100, 100, 300, 300))
	defer img.Close()

	s := New(config.Default())
	candidates, err := s.SegmentImage(context.Background(), "square", img)
	if err != nil {
		t.Fatalf("SegmentImage failed: %v", err)
	}
	if len(candidates) != 0 {
		for _, c := range candidates {
			c.Close()
		}
		t.Fatalf("square region accepted as card, %d candidates", len(candidates))
	}
}

func TestSegmentImageEmptyScene(t *testing.T) {
	img := gocv.NewMatWithSize(200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()

	s := New(config.Default())
	candidates, err := s.SegmentImage(context.Background(), "empty", img)
	if err != nil {
		t.Fatalf("SegmentImage failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates in an empty scene, got %d", len(candidates))
	}
}

func TestSegmentImageHonorsDeadline(t *testing.T) {
	img := cardScene(t, 400, 400, image.Rect(130, 100, 270, 300))
	defer img.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(config.Default())
	if _, err := s.SegmentImage(ctx, "canceled", img); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestFourPointTransformSize(t *testing.T) {
	img := cardScene(t, 400, 400, image.Rect(0, 0, 400, 400))
	defer img.Close()

	quad := geometry.Polygon{{X: 10, Y: 10}, {X: 110, Y: 10}, {X: 110, Y: 160}, {X: 10, Y: 160}}
	warped := fourPointTransform(img, quad)
	defer warped.Close()

	if warped.Cols() != 100 || warped.Rows() != 150 {
		t.Errorf("warped size %dx%d, want 100x150", warped.Cols(), warped.Rows())
	}
}
