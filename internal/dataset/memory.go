package dataset

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"
)

// MemoryStore is an in-memory Store used for fixtures and tests. It encodes
// values with msgpack on Put so that decoding behaves exactly like the
// database-backed stores.
type MemoryStore struct {
	name    string
	entries map[string][]byte
	queries atomic.Int64
}

// NewMemoryStore creates an empty in-memory dataset.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{name: name, entries: make(map[string][]byte)}
}

// Put stores val under key.
func (m *MemoryStore) Put(key string, val interface{}) error {
	b, err := msgpack.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	m.entries[key] = b
	return nil
}

func (m *MemoryStore) Name() string { return m.name }

func (m *MemoryStore) Contains(_ context.Context, key string) (bool, error) {
	m.queries.Add(1)
	_, ok := m.entries[key]
	return ok, nil
}

func (m *MemoryStore) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	m.queries.Add(1)
	b, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if err := msgpack.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// FilterCandidates returns the candidate maps for the subset of keys present.
func (m *MemoryStore) FilterCandidates(_ context.Context, keys []string) (map[string]CandidateMap, error) {
	m.queries.Add(1)
	out := make(map[string]CandidateMap)
	for _, key := range keys {
		b, ok := m.entries[key]
		if !ok {
			continue
		}
		var cm CandidateMap
		if err := msgpack.Unmarshal(b, &cm); err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		out[key] = cm
	}
	return out, nil
}

func (m *MemoryStore) Queries() int64 { return m.queries.Load() }

func (m *MemoryStore) Close() error { return nil }
