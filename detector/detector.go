package detector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"cardscan/annotate"
	"cardscan/config"
	"cardscan/imageprocessor"
	"cardscan/logging"
	"cardscan/ocr"
	"cardscan/recognizer"
	"cardscan/segmenter"
	"cardscan/signalhandler"
	"cardscan/types"
)

// Detector runs the full pipeline for query images: contrast adjustment,
// segmentation, fragment filtering and recognition, with optional OCR hints
// and annotated output images.
type Detector struct {
	cfg     config.Config
	seg     *segmenter.Segmenter
	rec     *recognizer.Recognizer
	loaders *imageprocessor.ImageLoaderRegistry

	titleMu sync.Mutex
	titles  *ocr.TitleReader
}

// ImageResult is the outcome of processing one query image.
type ImageResult struct {
	Path       string
	Candidates []types.CandidateSummary
}

// New builds a Detector over a loaded reference table.
func New(cfg config.Config, refs []types.ReferenceEntry) (*Detector, error) {
	rec, err := recognizer.New(cfg, refs)
	if err != nil {
		return nil, fmt.Errorf("building recognizer: %v", err)
	}

	d := &Detector{
		cfg:     cfg,
		seg:     segmenter.New(cfg),
		rec:     rec,
		loaders: imageprocessor.NewImageLoaderRegistry(),
	}
	if cfg.EnableOCRFallback {
		titles, err := ocr.NewTitleReader()
		if err != nil {
			return nil, fmt.Errorf("starting title reader: %v", err)
		}
		d.titles = titles
	}
	return d, nil
}

// Close releases resources held by the detector.
func (d *Detector) Close() {
	if d.titles != nil {
		d.titles.Close()
	}
}

// ProcessImage runs the pipeline on a single image. When outputDir is
// non-empty an annotated copy of the image is saved there. The configured
// image timeout bounds the whole call.
func (d *Detector) ProcessImage(ctx context.Context, path, outputDir string) (*ImageResult, error) {
	if d.cfg.ImageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(d.cfg.ImageTimeout))
		defer cancel()
	}

	img, err := d.loaders.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %v", path, err)
	}
	defer img.Close()

	adjusted, err := imageprocessor.HistogramAdjust(img, d.cfg.CLAHEClipLimit, d.cfg.CLAHETileSize)
	if err != nil {
		return nil, fmt.Errorf("adjusting %s: %v", path, err)
	}
	defer adjusted.Close()

	imageName := filepath.Base(path)
	candidates, err := d.seg.SegmentImage(ctx, imageName, adjusted)
	if err != nil {
		return nil, err
	}
	defer closeCandidates(candidates)

	if err := d.rec.RecognizeCandidates(ctx, imageName, candidates); err != nil {
		return nil, err
	}

	result := &ImageResult{Path: path}
	for _, cand := range candidates {
		summary := summarize(cand)
		if d.titles != nil && !cand.IsRecognized && !cand.IsFragment {
			summary.OCRHint = d.readTitle(imageName, cand)
		}
		result.Candidates = append(result.Candidates, summary)
	}

	if outputDir != "" {
		if err := d.saveAnnotated(adjusted, candidates, path, outputDir); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ProcessDirectory runs the pipeline over every loadable image in dir,
// processing images concurrently. Results are returned in path order. A
// failing image fails the whole batch.
func (d *Detector) ProcessDirectory(ctx context.Context, dir, outputDir string) ([]*ImageResult, error) {
	paths, err := d.listImages(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no loadable images in %s", dir)
	}

	results := make([]*ImageResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())
	for i, path := range paths {
		g.Go(func() error {
			result, err := d.ProcessImage(ctx, path, outputDir)
			logging.LogImageProcessed(path, err == nil, errMessage(err))
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Detector) workers() int {
	if d.cfg.MaxWorkers > 0 {
		return d.cfg.MaxWorkers
	}
	return signalhandler.GetOptimalProcs()
}

func (d *Detector) listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %v", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if d.loaders.CanLoadFile(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// readTitle runs the OCR fallback for one unrecognized candidate. The
// tesseract client is not concurrency safe, so calls are serialized.
func (d *Detector) readTitle(imageName string, cand *types.CardCandidate) string {
	d.titleMu.Lock()
	defer d.titleMu.Unlock()

	hint, err := d.titles.ReadTitle(cand.Image)
	if err != nil {
		logging.LogRegionSkipped(imageName, fmt.Sprintf("title OCR failed: %v", err))
		return ""
	}
	return hint
}

// saveAnnotated writes the annotated copy of one processed image.
func (d *Detector) saveAnnotated(adjusted gocv.Mat, candidates []*types.CardCandidate, path, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory %s: %v", outputDir, err)
	}
	annotated := annotate.Annotate(adjusted, candidates, d.cfg.SeparationThreshold)
	defer annotated.Close()
	return annotate.Save(annotated, filepath.Join(outputDir, outputName(path)), d.cfg.AnnotationMaxWidth, d.cfg.JPEGQuality)
}

func summarize(cand *types.CardCandidate) types.CandidateSummary {
	summary := types.CandidateSummary{
		Name:              cand.Name,
		Recognized:        cand.IsRecognized,
		Fragment:          cand.IsFragment,
		Separation:        cand.Separation,
		ImageAreaFraction: cand.ImageAreaFraction,
	}
	for i, p := range cand.BoundingQuad {
		if i >= 4 {
			break
		}
		summary.QuadCorners[i] = [2]float64{p.X, p.Y}
	}
	return summary
}

func closeCandidates(candidates []*types.CardCandidate) {
	for _, cand := range candidates {
		cand.Close()
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// outputName derives the annotated file name from the source image name.
func outputName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_detected.jpg"
}
