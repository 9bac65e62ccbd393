// Package config holds the tunable parameters of the detection pipeline.
// Components receive an explicit Config rather than sharing process-wide
// state, so several images can be processed in parallel without cross-talk.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %v", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config is the full configuration surface of the pipeline.
type Config struct {
	// ThresholdLevel is the fixed binarization level applied to the
	// grayscale image before contour extraction.
	ThresholdLevel int `yaml:"threshold_level"`

	// HashSize is the perceptual hash size parameter. A hash of size N
	// carries N*N bits. Reference and query hashes must use the same
	// size; a mismatch is a configuration error.
	HashSize int `yaml:"hash_size"`

	// SeparationThreshold is the statistical separation a best match must
	// exceed before a candidate is declared recognized.
	SeparationThreshold float64 `yaml:"separation_threshold"`

	// MaxCornerRoundness rejects detections whose bounding-quad corners
	// are too rounded to be card-shaped.
	MaxCornerRoundness float64 `yaml:"max_corner_roundness"`

	// FormFactorMin and FormFactorMax bound the area/(perimeter x
	// shortest edge) ratio of an acceptable bounding quadrilateral.
	FormFactorMin float64 `yaml:"form_factor_min"`
	FormFactorMax float64 `yaml:"form_factor_max"`

	// SimplifyTolerance is the edge-length fraction of total perimeter
	// below which polygon edges are removed during simplification.
	SimplifyTolerance float64 `yaml:"simplify_tolerance"`

	// CornerRegionSize positions the corner wedge chord as a fraction of
	// the way from the quad center to each corner.
	CornerRegionSize float64 `yaml:"corner_region_size"`

	// MaxQuadSearchVertices caps the simplified vertex count entering the
	// O(n^4) quadrilateral search. Regions above the cap are skipped.
	MaxQuadSearchVertices int `yaml:"max_quad_search_vertices"`

	// CLAHEClipLimit and CLAHETileSize configure the contrast-limited
	// adaptive histogram equalization applied to the lightness channel.
	CLAHEClipLimit float64 `yaml:"clahe_clip_limit"`
	CLAHETileSize  int     `yaml:"clahe_tile_size"`

	// ImageTimeout bounds the processing time of a single image. The
	// quad search is sensitive to contour complexity, so a runaway image
	// must not stall a batch. Zero disables the deadline.
	ImageTimeout Duration `yaml:"image_timeout"`

	// MaxWorkers bounds the number of images processed concurrently.
	MaxWorkers int `yaml:"max_workers"`

	// EnableOCRFallback runs title-band OCR on unrecognized candidates
	// and attaches the text as a hint to the report.
	EnableOCRFallback bool `yaml:"enable_ocr_fallback"`

	// AnnotationMaxWidth caps the width of saved annotated result images.
	// Zero keeps the original size.
	AnnotationMaxWidth int `yaml:"annotation_max_width"`

	// JPEGQuality is the quality used when saving annotated images.
	JPEGQuality int `yaml:"jpeg_quality"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		ThresholdLevel:        70,
		HashSize:              32,
		SeparationThreshold:   4.0,
		MaxCornerRoundness:    0.35,
		FormFactorMin:         0.27,
		FormFactorMax:         0.32,
		SimplifyTolerance:     0.05,
		CornerRegionSize:      0.9,
		MaxQuadSearchVertices: 12,
		CLAHEClipLimit:        2.0,
		CLAHETileSize:         8,
		ImageTimeout:          Duration(30 * time.Second),
		MaxWorkers:            0, // resolved by the caller
		EnableOCRFallback:     false,
		AnnotationMaxWidth:    0,
		JPEGQuality:           92,
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read config file %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config file %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %v", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.ThresholdLevel < 0 || c.ThresholdLevel > 255 {
		return fmt.Errorf("threshold_level %d outside [0, 255]", c.ThresholdLevel)
	}
	if c.HashSize < 2 {
		return fmt.Errorf("hash_size %d too small", c.HashSize)
	}
	if c.SeparationThreshold <= 0 {
		return fmt.Errorf("separation_threshold must be positive, got %f", c.SeparationThreshold)
	}
	if c.MaxCornerRoundness <= 0 || c.MaxCornerRoundness > 1 {
		return fmt.Errorf("max_corner_roundness %f outside (0, 1]", c.MaxCornerRoundness)
	}
	if c.FormFactorMin >= c.FormFactorMax {
		return fmt.Errorf("form factor band [%f, %f] is empty", c.FormFactorMin, c.FormFactorMax)
	}
	if c.SimplifyTolerance <= 0 || c.SimplifyTolerance >= 1 {
		return fmt.Errorf("simplify_tolerance %f outside (0, 1)", c.SimplifyTolerance)
	}
	if c.CornerRegionSize <= 0 || c.CornerRegionSize >= 1 {
		return fmt.Errorf("corner_region_size %f outside (0, 1)", c.CornerRegionSize)
	}
	if c.MaxQuadSearchVertices < 4 {
		return fmt.Errorf("max_quad_search_vertices %d below 4", c.MaxQuadSearchVertices)
	}
	return nil
}
