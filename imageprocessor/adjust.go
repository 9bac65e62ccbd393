package imageprocessor

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// HistogramAdjust applies contrast-limited adaptive histogram equalization
// to the lightness channel of the image. The Lab colorspace keeps the
// chroma channels untouched, so only local contrast changes. Both reference
// images and photographs to be segmented go through the same adjustment;
// hashing unadjusted images against an adjusted reference set degrades the
// separation statistic.
func HistogramAdjust(img gocv.Mat, clipLimit float64, tileSize int) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.NewMat(), fmt.Errorf("cannot adjust an empty image")
	}
	if img.Channels() != 3 {
		return gocv.NewMat(), fmt.Errorf("histogram adjustment needs a 3-channel image, got %d", img.Channels())
	}

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(img, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(clipLimit, image.Point{X: tileSize, Y: tileSize})
	defer clahe.Close()

	corrected := gocv.NewMat()
	defer corrected.Close()
	clahe.Apply(channels[0], &corrected)
	corrected.CopyTo(&channels[0])

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	out := gocv.NewMat()
	gocv.CvtColor(merged, &out, gocv.ColorLabToBGR)
	return out, nil
}
