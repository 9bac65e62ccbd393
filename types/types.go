package types

import (
	"gocv.io/x/gocv"

	"cardscan/geometry"
	"cardscan/imageprocessor"
)

// CardCandidate is a segment of an image that may be a recognizable card.
// It is created by the segmenter and mutated by the fragment filter and the
// recognizer.
type CardCandidate struct {
	Image             gocv.Mat         // rectified card image
	Contour           geometry.Polygon // source contour points
	BoundingQuad      geometry.Polygon
	ImageAreaFraction float64
	IsRecognized      bool
	IsFragment        bool
	Name              string
	Separation        float64 // separation statistic of the accepted match
}

// Contains reports whether the bounding quadrilateral of the candidate
// contains the bounding quadrilateral of the other candidate.
func (c *CardCandidate) Contains(other *CardCandidate) bool {
	return c.BoundingQuad.ContainsPolygon(other.BoundingQuad, 1e-9)
}

// Close releases the rectified image.
func (c *CardCandidate) Close() {
	if !c.Image.Empty() {
		c.Image.Close()
	}
}

// CandidateSummary is the per-candidate record reported for one image,
// consumable by downstream mapping tools.
type CandidateSummary struct {
	Name              string        `json:"name"`
	Recognized        bool          `json:"recognized"`
	Fragment          bool          `json:"fragment"`
	Separation        float64       `json:"separation"`
	ImageAreaFraction float64       `json:"image_area_fraction"`
	QuadCorners       [4][2]float64 `json:"quad_corners"`
	OCRHint           string        `json:"ocr_hint,omitempty"`
}

// ReferenceEntry is one loaded row of the reference table: a card name and
// its decoded perceptual hash. Entries are immutable after load and safe to
// share across workers.
type ReferenceEntry struct {
	Name string
	Hash imageprocessor.Hash
}

// ReferenceInfo holds the stored metadata for one reference card image.
type ReferenceInfo struct {
	Name           string `json:"name"`
	PerceptualHash string `json:"perceptual_hash"`
	HashSize       int    `json:"hash_size"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Format         string `json:"format"`
	CreatedAt      string `json:"created_at"`
}
