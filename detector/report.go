package detector

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
)

// WriteReport streams the batch results as semicolon-separated records, one
// row per non-fragment candidate. Unrecognized candidates are reported with
// an empty separation and their OCR hint when one was extracted.
func WriteReport(w io.Writer, results []*ImageResult) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write([]string{"image", "card", "separation", "ocr_hint"}); err != nil {
		return fmt.Errorf("writing report header: %v", err)
	}
	for _, result := range results {
		for _, cand := range result.Candidates {
			if cand.Fragment {
				continue
			}
			record := []string{filepath.Base(result.Path), cand.Name, "", cand.OCRHint}
			if cand.Recognized {
				record[2] = strconv.FormatFloat(cand.Separation, 'f', 2, 64)
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("writing report record: %v", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing report: %v", err)
	}
	return nil
}
