package linker

import (
	"sort"

	"github.com/wikimedia/research-mwaddlink/internal/dataset"
	"github.com/wikimedia/research-mwaddlink/internal/features"
)

// maxCandidatesPerMention caps how many anchor targets are scored for one
// mention. Candidates beyond the cap are almost never chosen and scoring
// them is the dominant per-mention cost.
const maxCandidatesPerMention = 10

// rankedCandidates returns candidate titles ordered by link frequency,
// highest first, ties broken by title so runs are deterministic, truncated
// to the per-mention cap.
func rankedCandidates(cm dataset.CandidateMap) []string {
	titles := make([]string, 0, len(cm))
	for t := range cm {
		titles = append(titles, t)
	}
	sort.Slice(titles, func(i, j int) bool {
		if cm[titles[i]] != cm[titles[j]] {
			return cm[titles[i]] > cm[titles[j]]
		}
		return titles[i] < titles[j]
	})
	if len(titles) > maxCandidatesPerMention {
		titles = titles[:maxCandidatesPerMention]
	}
	return titles
}

// classify scores every ranked candidate for mention and returns the
// highest-probability target. ok is false when no candidate reaches the
// probability threshold.
func (r *run) classify(mention string, cm dataset.CandidateMap) (target string, prob float64, ok bool, err error) {
	best := ""
	bestProb := -1.0
	for _, cand := range rankedCandidates(cm) {
		candEmb, _, err := dataset.Embedding(r.ctx, r.l.embeddings, cand)
		if err != nil {
			return "", 0, false, err
		}
		fv := features.Build(mention, cand, cm, r.pageEmb, candEmb, r.l.model.NumFeatures())
		p, err := r.l.model.PredictProbability(fv)
		if err != nil {
			return "", 0, false, err
		}
		if p > bestProb || (p == bestProb && cand < best) {
			best, bestProb = cand, p
		}
	}
	if best == "" || bestProb < r.req.Threshold {
		return "", 0, false, nil
	}
	return best, bestProb, true, nil
}
