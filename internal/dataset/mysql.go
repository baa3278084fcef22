package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/vmihailenco/msgpack/v5"
)

// filterBatchSize bounds how many keys go into a single IN (...) query.
const filterBatchSize = 500

// MySQLStore reads a dataset from a MySQL table named
// "lr_{wikiID}_{dataset}". It is the only backend implementing
// CandidateFilterer: against a remote database, one batched query for a
// text run is much cheaper than one round trip per mention.
type MySQLStore struct {
	name    string
	table   string
	db      *sql.DB
	queries atomic.Int64
}

// NewMySQLStore wraps an open connection pool. The pool is shared between
// stores and owned by the caller; Close on the store is a no-op for it.
func NewMySQLStore(db *sql.DB, wikiID, name string) *MySQLStore {
	return &MySQLStore{
		name:  name,
		table: TableName(wikiID, name),
		db:    db,
	}
}

// TableName returns the MySQL table holding a wiki's dataset.
func TableName(wikiID, name string) string {
	return fmt.Sprintf("lr_%s_%s", strings.ReplaceAll(wikiID, "-", "_"), name)
}

func (s *MySQLStore) Name() string { return s.name }

func (s *MySQLStore) Contains(ctx context.Context, key string) (bool, error) {
	s.queries.Add(1)
	var one int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE lookup = ? LIMIT 1", s.table), key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("contains %q in %s: %w", key, s.name, err)
	}
	return true, nil
}

func (s *MySQLStore) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	s.queries.Add(1)
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT value FROM %s WHERE lookup = ? LIMIT 1", s.table), key).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %q from %s: %w", key, s.name, err)
	}
	if err := msgpack.Unmarshal(blob, dst); err != nil {
		return false, fmt.Errorf("decode %q from %s: %w", key, s.name, err)
	}
	return true, nil
}

// FilterCandidates fetches candidate maps for all present keys, chunked at
// filterBatchSize keys per query.
func (s *MySQLStore) FilterCandidates(ctx context.Context, keys []string) (map[string]CandidateMap, error) {
	out := make(map[string]CandidateMap)
	for start := 0; start < len(keys); start += filterBatchSize {
		end := start + filterBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.filterChunk(ctx, keys[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *MySQLStore) filterChunk(ctx context.Context, keys []string, out map[string]CandidateMap) error {
	s.queries.Add(1)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT lookup, value FROM %s WHERE lookup IN (%s)", s.table, placeholders),
		args...)
	if err != nil {
		return fmt.Errorf("filter %s: %w", s.name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return fmt.Errorf("filter %s: %w", s.name, err)
		}
		var cm CandidateMap
		if err := msgpack.Unmarshal(blob, &cm); err != nil {
			return fmt.Errorf("decode %q from %s: %w", key, s.name, err)
		}
		out[key] = cm
	}
	return rows.Err()
}

func (s *MySQLStore) Queries() int64 { return s.queries.Load() }

// Close is a no-op: the connection pool is shared and closed by its owner.
func (s *MySQLStore) Close() error { return nil }
