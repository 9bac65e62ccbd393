package imageprocessor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"gocv.io/x/gocv"

	"cardscan/logging"
)

// ImageLoader loads one class of input files into a color Mat.
type ImageLoader interface {
	CanLoad(path string) bool
	LoadImage(path string) (gocv.Mat, error)
}

// DefaultImageLoader handles the formats gocv decodes directly.
type DefaultImageLoader struct{}

func (l *DefaultImageLoader) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp", ".webp":
		_, err := os.Stat(path)
		return err == nil
	}
	return false
}

func (l *DefaultImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return img, fmt.Errorf("failed to load image: %s", path)
	}
	return img, nil
}

// PdfImageLoader renders the first page of a PDF as the input image.
// Flatbed scans of card binders commonly arrive as single-page PDFs.
type PdfImageLoader struct {
	// DPI controls the render resolution. go-fitz defaults to 72 DPI,
	// too coarse for hash-quality card regions.
	DPI float64
}

func (l *PdfImageLoader) CanLoad(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (l *PdfImageLoader) LoadImage(path string) (gocv.Mat, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to open PDF %s: %v", path, err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return gocv.NewMat(), fmt.Errorf("PDF %s has no pages", path)
	}
	if doc.NumPage() > 1 {
		logging.LogWarning("PDF %s has %d pages, rendering only the first", path, doc.NumPage())
	}

	dpi := l.DPI
	if dpi <= 0 {
		dpi = 200
	}
	page, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to render PDF page of %s: %v", path, err)
	}

	rgba, err := gocv.ImageToMatRGBA(page)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert PDF page of %s: %v", path, err)
	}
	defer rgba.Close()

	out := gocv.NewMat()
	gocv.CvtColor(rgba, &out, gocv.ColorRGBAToBGR)
	return out, nil
}

// ImageLoaderRegistry manages available image loaders
type ImageLoaderRegistry struct {
	loaders []ImageLoader
}

// NewImageLoaderRegistry creates a registry with default loaders
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	return &ImageLoaderRegistry{
		loaders: []ImageLoader{
			&DefaultImageLoader{},
			&PdfImageLoader{},
		},
	}
}

// RegisterLoader adds a custom loader to the registry
func (r *ImageLoaderRegistry) RegisterLoader(loader ImageLoader) {
	r.loaders = append(r.loaders, loader)
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	for _, loader := range r.loaders {
		if loader.CanLoad(path) {
			return true
		}
	}
	return false
}

// LoadImage tries to load an image using the appropriate loader
func (r *ImageLoaderRegistry) LoadImage(path string) (gocv.Mat, error) {
	for _, loader := range r.loaders {
		if loader.CanLoad(path) {
			return loader.LoadImage(path)
		}
	}
	return gocv.NewMat(), fmt.Errorf("no suitable loader found for image: %s", path)
}

// LoadImage loads an image in color with error handling
func LoadImage(path string) (gocv.Mat, error) {
	registry := NewImageLoaderRegistry()
	return registry.LoadImage(path)
}
