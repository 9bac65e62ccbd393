package detector

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cardscan/geometry"
	"cardscan/imageprocessor"
	"cardscan/types"
)

func TestWriteReport(t *testing.T) {
	results := []*ImageResult{
		{
			Path: "/photos/table1.jpg",
			Candidates: []types.CandidateSummary{
				{Name: "black_lotus", Recognized: true, Separation: 12.345},
				{Name: "unknown", OCRHint: "Counterspell"},
				{Name: "black_lotus", Fragment: true},
			},
		},
		{
			Path: "/photos/table2.jpg",
			Candidates: []types.CandidateSummary{
				{Name: "time_walk", Recognized: true, Separation: 8.1},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, results); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"image;card;separation;ocr_hint",
		"table1.jpg;black_lotus;12.35;",
		"table1.jpg;unknown;;Counterspell",
		"table2.jpg;time_walk;8.10;",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d report lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, line := range lines {
		if line != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], line)
		}
	}
}

func TestSummarize(t *testing.T) {
	cand := &types.CardCandidate{
		BoundingQuad: geometry.Polygon{
			{X: 1, Y: 2}, {X: 3, Y: 2}, {X: 3, Y: 5}, {X: 1, Y: 5},
		},
		IsRecognized:      true,
		Name:              "ancestral_recall",
		Separation:        9.5,
		ImageAreaFraction: 0.12,
	}

	summary := summarize(cand)
	if summary.Name != "ancestral_recall" || !summary.Recognized {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.QuadCorners[2] != [2]float64{3, 5} {
		t.Errorf("unexpected corner %v", summary.QuadCorners[2])
	}
}

func TestOutputName(t *testing.T) {
	if got := outputName("/photos/table1.jpg"); got != "table1_detected.jpg" {
		t.Errorf("unexpected output name %q", got)
	}
	if got := outputName("scan.pdf"); got != "scan_detected.jpg" {
		t.Errorf("unexpected output name %q", got)
	}
}

func TestReferenceName(t *testing.T) {
	if got := referenceName("/refs/black_lotus.jpg"); got != "black_lotus" {
		t.Errorf("unexpected reference name %q", got)
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt", "scan.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("creating subdirectory: %v", err)
	}

	d := &Detector{loaders: imageprocessor.NewImageLoaderRegistry()}
	paths, err := d.listImages(dir)
	if err != nil {
		t.Fatalf("listImages: %v", err)
	}

	var names []string
	for _, path := range paths {
		names = append(names, filepath.Base(path))
	}
	want := []string{"a.jpg", "b.png", "scan.pdf"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}
