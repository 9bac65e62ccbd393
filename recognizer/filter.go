package recognizer

import (
	"context"
	"fmt"

	"cardscan/logging"
	"cardscan/types"
)

// MarkFragments flags candidates whose bounding quad lies inside the quad of
// a recognized, non-fragment candidate. Fragments are leftovers of a larger
// card already accounted for and are excluded from recognition.
func MarkFragments(candidates []*types.CardCandidate) {
	for _, cand := range candidates {
		if cand.IsFragment {
			continue
		}
		for _, other := range candidates {
			if other == cand || !other.IsRecognized || other.IsFragment {
				continue
			}
			if other.Contains(cand) {
				cand.IsFragment = true
				break
			}
		}
	}
}

// RecognizeCandidates runs recognition over the candidate list in order,
// interleaving the fragment filter so that a candidate contained in an
// already recognized card is skipped rather than matched twice. Per-candidate
// hashing failures are logged and do not abort the pass.
func (r *Recognizer) RecognizeCandidates(ctx context.Context, imageName string, candidates []*types.CardCandidate) error {
	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("recognition of %s interrupted: %v", imageName, err)
		}

		MarkFragments(candidates[:i+1])
		if cand.IsFragment {
			logging.LogRegionSkipped(imageName, "fragment of a recognized card")
			continue
		}

		match, err := r.RecognizeSegment(cand.Image)
		if err != nil {
			logging.LogRegionSkipped(imageName, err.Error())
			continue
		}
		if match.Recognized {
			cand.IsRecognized = true
			cand.Name = match.Name
			cand.Separation = match.Separation
			logging.LogRecognition(imageName, match.Name, match.Separation, match.Rotation)
		}
	}
	return nil
}
