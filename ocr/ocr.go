package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// TitleReader extracts the printed card title from a rectified card image.
// It is used as a fallback hint for candidates the hash matcher could not
// recognize. A TitleReader holds a tesseract client and is not safe for
// concurrent use.
type TitleReader struct {
	client *gosseract.Client
}

// NewTitleReader creates a reader with the tesseract client configured for
// English card titles.
func NewTitleReader() (*TitleReader, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("configuring tesseract language: %v", err)
	}
	if err := client.SetWhitelist("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ ',-"); err != nil {
		client.Close()
		return nil, fmt.Errorf("configuring tesseract whitelist: %v", err)
	}
	return &TitleReader{client: client}, nil
}

// Close releases the tesseract client.
func (r *TitleReader) Close() error {
	return r.client.Close()
}

// ReadTitle crops the title band of a rectified card, binarizes it and runs
// OCR over the result. The returned string is whitespace-normalized and may
// be empty when no text is found.
func (r *TitleReader) ReadTitle(img gocv.Mat) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("card image is empty")
	}

	w := img.Cols()
	h := img.Rows()
	band := image.Rect(
		int(float64(w)*0.05), int(float64(h)*0.04),
		int(float64(w)*0.95), int(float64(h)*0.10),
	)
	if band.Dx() < 8 || band.Dy() < 8 {
		return "", fmt.Errorf("card image %dx%d too small for title extraction", w, h)
	}

	title := img.Region(band)
	defer title.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(title, &gray, gocv.ColorBGRToGray)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 127, 255, gocv.ThresholdBinaryInv)

	buf, err := gocv.IMEncode(gocv.PNGFileExt, binary)
	if err != nil {
		return "", fmt.Errorf("encoding title band: %v", err)
	}
	defer buf.Close()

	if err := r.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("passing title band to tesseract: %v", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("extracting title text: %v", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}
