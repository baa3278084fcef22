// Package features computes the numeric feature vectors consumed by the
// trained link model. The feature order and the padding constants are part
// of the model contract and must not change without retraining.
package features

import (
	"math"
	"sort"
	"strings"

	"github.com/xrash/smetrics"
	"gonum.org/v1/gonum/stat"

	"github.com/wikimedia/research-mwaddlink/internal/dataset"
)

// NumBaseFeatures is the length of the base feature vector. Models trained
// with a dataset-identifier slot expect one extra feature.
const NumBaseFeatures = 6

// kurtosisPadLength dampens the kurtosis statistic for low-ambiguity
// mentions by right-padding the frequency distribution with ones.
const kurtosisPadLength = 1000

// Build computes the feature vector for a (mention, candidate) pair:
// [token count, pair frequency, ambiguity, padded kurtosis, embedding
// cosine, Jaro similarity], extended with a zero dataset feature when
// numFeatures asks for one.
func Build(mention, candidate string, candidates dataset.CandidateMap, pageEmb, candEmb []float32, numFeatures int) []float64 {
	v := []float64{
		float64(TokenCount(mention)),
		float64(candidates[candidate]),
		float64(len(candidates)),
		PaddedKurtosis(candidates),
		CosineSimilarity(pageEmb, candEmb),
		smetrics.Jaro(strings.ToLower(mention), strings.ToLower(candidate)),
	}
	for len(v) < numFeatures {
		v = append(v, 0)
	}
	return v
}

// TokenCount is a simple whitespace token count of the mention.
func TokenCount(mention string) int {
	return len(strings.Fields(mention))
}

// PaddedKurtosis returns the Fisher excess kurtosis of the candidate
// frequency distribution, sorted descending and right-padded with the value
// 1 up to 1000 entries. A zero-variance distribution yields -3.
func PaddedKurtosis(candidates dataset.CandidateMap) float64 {
	freqs := make([]float64, 0, len(candidates))
	for _, f := range candidates {
		freqs = append(freqs, float64(f))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(freqs)))
	for len(freqs) < kurtosisPadLength {
		freqs = append(freqs, 1)
	}
	m2 := stat.Moment(2, freqs, nil)
	if m2 == 0 {
		return -3
	}
	m4 := stat.Moment(4, freqs, nil)
	return m4/(m2*m2) - 3
}

// CosineSimilarity returns the cosine of two embedding vectors. Missing or
// zero-norm vectors give 0, as does a NaN result.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	sim := dot / denom
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}
