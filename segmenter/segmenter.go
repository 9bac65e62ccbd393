// Package segmenter extracts card-shaped regions from a photograph and
// rectifies each one into an axis-aligned image ready for hashing.
package segmenter

import (
	"context"
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"

	"cardscan/config"
	"cardscan/geometry"
	"cardscan/logging"
	"cardscan/types"
)

// lcaSentinel initializes the largest-accepted-card-area tracker. Any real
// detection dwarfs it, so the first acceptance sets the actual bar.
const lcaSentinel = 0.01

// Segmenter turns one adjusted image into a ranked list of card candidates.
type Segmenter struct {
	cfg config.Config
}

// New returns a Segmenter with the given configuration.
func New(cfg config.Config) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// SegmentImage segments the adjusted image into card candidates: regions
// with a high chance of containing a recognizable card, largest first.
// Geometry failures are per-region and skip only that region. The context
// deadline bounds the whole segmentation; the quadrilateral search cost
// grows quickly with contour complexity.
func (s *Segmenter) SegmentImage(ctx context.Context, imageName string, adjusted gocv.Mat) ([]*types.CardCandidate, error) {
	if adjusted.Empty() {
		return nil, fmt.Errorf("cannot segment an empty image")
	}
	imageArea := float64(adjusted.Rows() * adjusted.Cols())

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(adjusted, &gray, gocv.ColorBGRToGray)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(gray, &thresh, float32(s.cfg.ThresholdLevel), 255, gocv.ThresholdBinary)

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()
	contours := gocv.FindContoursWithParams(thresh, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	// Sort contours by area, descending, so the early exit below is valid.
	type contourEntry struct {
		points geometry.Polygon
		area   float64
	}
	entries := make([]contourEntry, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pts := contours.At(i).ToPoints()
		if len(pts) < 3 {
			continue
		}
		poly := make(geometry.Polygon, len(pts))
		for j, p := range pts {
			poly[j] = geometry.Point{X: float64(p.X), Y: float64(p.Y)}
		}
		entries = append(entries, contourEntry{
			points: poly,
			area:   gocv.ContourArea(contours.At(i)),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].area > entries[j].area
	})

	var candidates []*types.CardCandidate
	lca := lcaSentinel

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			releaseCandidates(candidates)
			return nil, fmt.Errorf("segmentation of %s aborted: %v", imageName, err)
		}

		hull := geometry.ConvexHull(entry.points)
		if len(hull) < 3 {
			continue
		}
		// Contours arrive sorted by area, so once the hull drops below
		// the card size range the remaining contours cannot qualify.
		if hull.Area() < 0.7*lca || hull.Area() < imageArea/1000 {
			break
		}

		quad, err := geometry.BoundingQuad(hull, s.cfg.SimplifyTolerance, s.cfg.MaxQuadSearchVertices)
		if err != nil {
			logging.LogRegionSkipped(imageName, err.Error())
			continue
		}

		roundness := geometry.QuadCornerDiff(hull, quad, s.cfg.CornerRegionSize)

		// Rounded corners bleed background into the rectified image;
		// shrinking the capture region compensates.
		scaleFactor := 1 - roundness*0.22
		if scaleFactor > 1 {
			scaleFactor = 1
		}
		warped := fourPointTransform(adjusted, quad.Scale(scaleFactor))

		quadArea := quad.Area()
		accepted := quadArea > 0.7*lca &&
			quadArea < 0.99*imageArea &&
			roundness < s.cfg.MaxCornerRoundness &&
			quad.FormFactor() > s.cfg.FormFactorMin &&
			quad.FormFactor() < s.cfg.FormFactorMax

		if !accepted {
			warped.Close()
			continue
		}
		if lca == lcaSentinel {
			lca = quadArea
		}
		candidates = append(candidates, &types.CardCandidate{
			Image:             warped,
			Contour:           entry.points,
			BoundingQuad:      quad,
			ImageAreaFraction: quadArea / imageArea,
			Name:              "unknown",
		})
		logging.DebugLog("Segmented %d candidates in %s", len(candidates), imageName)
	}

	return candidates, nil
}

// fourPointTransform maps the quadrilateral region onto an axis-aligned
// rectangle, a standard bird's-eye unwarp. The output size takes the
// maximum of the two opposing edge length estimates on each axis.
func fourPointTransform(img gocv.Mat, quad geometry.Polygon) gocv.Mat {
	c := geometry.OrderCorners(quad)
	tl, tr, br, bl := c[0], c[1], c[2], c[3]

	maxWidth := int(tl.Dist(tr))
	if w := int(bl.Dist(br)); w > maxWidth {
		maxWidth = w
	}
	maxHeight := int(tr.Dist(br))
	if h := int(tl.Dist(bl)); h > maxHeight {
		maxHeight = h
	}
	if maxWidth < 1 {
		maxWidth = 1
	}
	if maxHeight < 1 {
		maxHeight = 1
	}

	src := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: float32(tl.X), Y: float32(tl.Y)},
		{X: float32(tr.X), Y: float32(tr.Y)},
		{X: float32(br.X), Y: float32(br.Y)},
		{X: float32(bl.X), Y: float32(bl.Y)},
	})
	defer src.Close()
	dst := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: 0},
		{X: float32(maxWidth - 1), Y: 0},
		{X: float32(maxWidth - 1), Y: float32(maxHeight - 1)},
		{X: 0, Y: float32(maxHeight - 1)},
	})
	defer dst.Close()

	transform := gocv.GetPerspectiveTransform2f(src, dst)
	defer transform.Close()

	warped := gocv.NewMat()
	gocv.WarpPerspective(img, &warped, transform, image.Point{X: maxWidth, Y: maxHeight})
	return warped
}

// releaseCandidates closes the rectified images of all candidates.
func releaseCandidates(candidates []*types.CardCandidate) {
	for _, c := range candidates {
		c.Close()
	}
}
