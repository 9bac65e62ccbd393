package annotate

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
	xdraw "golang.org/x/image/draw"

	"cardscan/geometry"
	"cardscan/types"
)

const quadThickness = 3

// Annotate returns a copy of the source image with every non-fragment
// candidate outlined and labeled. Recognized candidates are colored by
// match confidence, unrecognized ones are drawn gray.
func Annotate(img gocv.Mat, candidates []*types.CardCandidate, separationThreshold float64) gocv.Mat {
	out := gocv.NewMat()
	img.CopyTo(&out)

	for _, cand := range candidates {
		if cand.IsFragment {
			continue
		}
		quad := cand.BoundingQuad
		if len(quad) != 4 {
			continue
		}

		var col color.RGBA
		label := cand.Name
		if cand.IsRecognized {
			col = confidenceColor(cand.Separation, separationThreshold)
		} else {
			col = color.RGBA{R: 128, G: 128, B: 128, A: 255}
			label = "unknown"
		}

		drawQuad(&out, quad, col)
		gocv.PutText(&out, label, labelAnchor(quad), gocv.FontHersheySimplex, 0.9, col, 2)
	}
	return out
}

func drawQuad(img *gocv.Mat, quad geometry.Polygon, col color.RGBA) {
	for i := range quad {
		a := quad[i]
		b := quad[(i+1)%len(quad)]
		gocv.Line(img,
			image.Pt(int(math.Round(a.X)), int(math.Round(a.Y))),
			image.Pt(int(math.Round(b.X)), int(math.Round(b.Y))),
			col, quadThickness)
	}
}

// labelAnchor places the label just above the topmost corner of the quad,
// clamped to the image interior.
func labelAnchor(quad geometry.Polygon) image.Point {
	minX, minY := quad[0].X, quad[0].Y
	for _, p := range quad[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
	}
	y := int(math.Round(minY)) - 8
	if y < 20 {
		y = 20
	}
	return image.Pt(int(math.Round(minX)), y)
}

// confidenceColor maps the separation statistic onto a red-to-green ramp.
// A match right at the threshold renders red, twice the threshold or more
// renders full green.
func confidenceColor(separation, threshold float64) color.RGBA {
	t := (separation - threshold) / threshold
	if math.IsInf(separation, 1) || t > 1 {
		t = 1
	}
	if t < 0 {
		t = 0
	}
	c := colorful.Hsv(120*t, 1, 1)
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Save writes the annotated image to disk as JPEG. When maxWidth is positive
// and the image is wider, it is downscaled with Catmull-Rom resampling before
// saving.
func Save(img gocv.Mat, path string, maxWidth, quality int) error {
	src, err := img.ToImage()
	if err != nil {
		return fmt.Errorf("converting annotated image: %v", err)
	}

	if maxWidth > 0 && src.Bounds().Dx() > maxWidth {
		scale := float64(maxWidth) / float64(src.Bounds().Dx())
		h := int(math.Round(float64(src.Bounds().Dy()) * scale))
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
		src = dst
	}

	if err := imaging.Save(src, path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("saving annotated image %s: %v", path, err)
	}
	return nil
}
