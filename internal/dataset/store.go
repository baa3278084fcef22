// Package dataset provides read-only key-value access to the per-wiki lookup
// datasets (anchors, pageids, redirects, embeddings) over memory, SQLite, or
// MySQL backends. Values are msgpack-encoded.
package dataset

import (
	"context"
	"fmt"
)

// Standard dataset names for a wiki.
const (
	DatasetAnchors    = "anchors"
	DatasetPageIDs    = "pageids"
	DatasetRedirects  = "redirects"
	DatasetEmbeddings = "w2vfiltered"
	DatasetModel      = "model"
)

// CandidateMap maps a link-target title to the number of times the anchor
// text was used to link to it.
type CandidateMap map[string]int

// Store is a read-only lookup dictionary.
type Store interface {
	// Name returns the dataset name, e.g. "anchors".
	Name() string
	// Contains reports whether key is present.
	Contains(ctx context.Context, key string) (bool, error)
	// Get decodes the value for key into dst. The second return is false
	// when the key is absent.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	// Queries returns the number of lookup round trips performed so far.
	Queries() int64
	Close() error
}

// CandidateFilterer is an optional Store capability: retrieve the candidate
// maps for a whole set of anchor keys in batched round trips. Engines must
// check for it at runtime; results are identical to per-key Gets.
type CandidateFilterer interface {
	FilterCandidates(ctx context.Context, keys []string) (map[string]CandidateMap, error)
}

// Candidates fetches the candidate map for one anchor key.
func Candidates(ctx context.Context, s Store, key string) (CandidateMap, bool, error) {
	var m CandidateMap
	ok, err := s.Get(ctx, key, &m)
	if err != nil {
		return nil, false, fmt.Errorf("candidates for %q: %w", key, err)
	}
	return m, ok, nil
}

// Redirect resolves title through the redirect dataset, returning title
// itself when no redirect exists.
func Redirect(ctx context.Context, s Store, title string) (string, error) {
	var target string
	ok, err := s.Get(ctx, title, &target)
	if err != nil {
		return "", fmt.Errorf("redirect for %q: %w", title, err)
	}
	if !ok {
		return title, nil
	}
	return target, nil
}

// PageID returns the numeric page ID for title, or false when the title is
// not a known page.
func PageID(ctx context.Context, s Store, title string) (int64, bool, error) {
	var id int64
	ok, err := s.Get(ctx, title, &id)
	if err != nil {
		return 0, false, fmt.Errorf("pageid for %q: %w", title, err)
	}
	return id, ok, nil
}

// Embedding returns the embedding vector for title, or false when absent.
func Embedding(ctx context.Context, s Store, title string) ([]float32, bool, error) {
	var vec []float32
	ok, err := s.Get(ctx, title, &vec)
	if err != nil {
		return nil, false, fmt.Errorf("embedding for %q: %w", title, err)
	}
	return vec, ok, nil
}
