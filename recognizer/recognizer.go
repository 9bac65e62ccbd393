package recognizer

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"cardscan/config"
	"cardscan/imageprocessor"
	"cardscan/types"
)

// Match is the result of comparing one rectified segment against the
// reference table.
type Match struct {
	Recognized bool
	Name       string
	Separation float64
	Rotation   int // quarter turns counterclockwise, 0 to 3
}

// Recognizer matches rectified card images against a loaded reference table
// using rotation-aware perceptual hash distances.
type Recognizer struct {
	cfg  config.Config
	refs []types.ReferenceEntry
}

// New creates a Recognizer over the given reference table. The table must be
// non-empty and every entry must carry a hash of the configured size.
func New(cfg config.Config, refs []types.ReferenceEntry) (*Recognizer, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("reference table is empty")
	}
	for _, ref := range refs {
		if ref.Hash.Size() != cfg.HashSize {
			return nil, fmt.Errorf("reference %s has hash size %d, expected %d",
				ref.Name, ref.Hash.Size(), cfg.HashSize)
		}
	}
	return &Recognizer{cfg: cfg, refs: refs}, nil
}

// RecognizeSegment compares a rectified segment against the reference table at
// each of the four quarter-turn rotations and returns the best match found.
// A rotation qualifies when its separation statistic exceeds the configured
// threshold and strictly improves on every rotation tested before it; the
// search stops at the first qualifying rotation.
func (r *Recognizer) RecognizeSegment(img gocv.Mat) (Match, error) {
	if img.Empty() {
		return Match{}, fmt.Errorf("segment image is empty")
	}

	var seen []float64
	for turns := 0; turns < 4; turns++ {
		rotated := imageprocessor.RotateQuarterTurns(img, turns)
		hash, err := imageprocessor.ComputePerceptualHash(rotated, r.cfg.HashSize)
		rotated.Close()
		if err != nil {
			return Match{}, fmt.Errorf("hashing segment: %v", err)
		}

		best, sep, err := r.matchHash(hash)
		if err != nil {
			return Match{}, err
		}
		if sep > r.cfg.SeparationThreshold && greaterThanAll(sep, seen) {
			return Match{
				Recognized: true,
				Name:       r.refs[best].Name,
				Separation: sep,
				Rotation:   turns,
			}, nil
		}
		seen = append(seen, sep)
	}
	return Match{}, nil
}

// matchHash finds the reference with the minimum Hamming distance to the
// given hash and computes the separation statistic of that minimum against
// the population of strictly larger distances.
func (r *Recognizer) matchHash(hash imageprocessor.Hash) (int, float64, error) {
	distances := make([]float64, len(r.refs))
	for i, ref := range r.refs {
		d, err := hash.Distance(ref.Hash)
		if err != nil {
			return 0, 0, fmt.Errorf("comparing against %s: %v", ref.Name, err)
		}
		distances[i] = float64(d)
	}

	best := 0
	for i, d := range distances {
		if d < distances[best] {
			best = i
		}
	}
	return best, separation(distances, distances[best]), nil
}

// separation measures how far dmin stands out from the population of strictly
// larger distances: (mean(others) - dmin) / stddev(others). With no strictly
// larger distance the statistic is NaN; with exactly one it is infinite.
func separation(distances []float64, dmin float64) float64 {
	var others []float64
	for _, d := range distances {
		if d > dmin {
			others = append(others, d)
		}
	}
	if len(others) == 0 {
		return math.NaN()
	}

	var sum float64
	for _, d := range others {
		sum += d
	}
	mean := sum / float64(len(others))

	var sq float64
	for _, d := range others {
		sq += (d - mean) * (d - mean)
	}
	std := math.Sqrt(sq / float64(len(others)))
	return (mean - dmin) / std
}

func greaterThanAll(sep float64, seen []float64) bool {
	for _, s := range seen {
		if !(sep > s) {
			return false
		}
	}
	return true
}
