package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardscan.yaml")
	content := []byte("threshold_level: 90\nhash_size: 16\nimage_timeout: 5s\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ThresholdLevel != 90 {
		t.Errorf("threshold_level: got %d, want 90", cfg.ThresholdLevel)
	}
	if cfg.HashSize != 16 {
		t.Errorf("hash_size: got %d, want 16", cfg.HashSize)
	}
	if time.Duration(cfg.ImageTimeout) != 5*time.Second {
		t.Errorf("image_timeout: got %v, want 5s", cfg.ImageTimeout)
	}
	// Untouched keys keep their defaults.
	if cfg.SeparationThreshold != 4.0 {
		t.Errorf("separation_threshold: got %f, want 4.0", cfg.SeparationThreshold)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold out of range", func(c *Config) { c.ThresholdLevel = 300 }},
		{"tiny hash", func(c *Config) { c.HashSize = 1 }},
		{"zero separation", func(c *Config) { c.SeparationThreshold = 0 }},
		{"empty form factor band", func(c *Config) { c.FormFactorMin, c.FormFactorMax = 0.3, 0.3 }},
		{"bad simplify tolerance", func(c *Config) { c.SimplifyTolerance = 1.5 }},
		{"vertex cap below quad", func(c *Config) { c.MaxQuadSearchVertices = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
