package imageprocessor

import (
	"fmt"
	"path/filepath"
	"strings"

	exiftool "github.com/barasher/go-exiftool"

	"cardscan/logging"
)

// ImageMetadata captures the stored attributes of a reference image.
type ImageMetadata struct {
	Width  int
	Height int
	Format string
}

// MetadataReader extracts image metadata through exiftool. Construct one
// per batch; each instance owns a long-lived exiftool process.
type MetadataReader struct {
	et *exiftool.Exiftool
}

// NewMetadataReader starts the exiftool helper. A missing exiftool binary
// is not fatal for detection, so callers may treat the error as a warning
// and fall back to pixel dimensions.
func NewMetadataReader() (*MetadataReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("cannot initialize exiftool: %v", err)
	}
	return &MetadataReader{et: et}, nil
}

// Close terminates the exiftool helper.
func (r *MetadataReader) Close() {
	if r.et != nil {
		r.et.Close()
	}
}

// Read returns the metadata of one image file.
func (r *MetadataReader) Read(path string) (ImageMetadata, error) {
	meta := ImageMetadata{
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}
	fms := r.et.ExtractMetadata(path)
	if len(fms) == 0 {
		return meta, fmt.Errorf("no metadata for %s", path)
	}
	fm := fms[0]
	if fm.Err != nil {
		return meta, fmt.Errorf("metadata extraction failed for %s: %v", path, fm.Err)
	}

	if w, err := fm.GetInt("ImageWidth"); err == nil {
		meta.Width = int(w)
	}
	if h, err := fm.GetInt("ImageHeight"); err == nil {
		meta.Height = int(h)
	}
	if mime, err := fm.GetString("MIMEType"); err == nil {
		if idx := strings.Index(mime, "/"); idx >= 0 && idx+1 < len(mime) {
			meta.Format = mime[idx+1:]
		}
	}
	if meta.Width == 0 || meta.Height == 0 {
		logging.DebugLog("exiftool returned no dimensions for %s", path)
	}
	return meta, nil
}
