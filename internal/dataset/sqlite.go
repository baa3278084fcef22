package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vmihailenco/msgpack/v5"
)

// SQLiteStore reads a dataset from a single-table SQLite file
// ("entries(lookup TEXT PRIMARY KEY, value BLOB)"). SQLite lookups are local
// file reads, so this backend does not batch.
type SQLiteStore struct {
	name    string
	db      *sql.DB
	queries atomic.Int64
}

// NewSQLiteStore opens an existing dataset file at path read-only. A missing
// file is an error: the serving path must never create empty dataset files in
// the data directory.
func NewSQLiteStore(path, name string) (*SQLiteStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset %s missing at %s: %w", name, path, err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", name, err)
	}
	return &SQLiteStore{name: name, db: db}, nil
}

// CreateSQLiteStore opens the dataset file at path read-write, creating the
// file and schema when new. Used by load tooling and test fixtures.
func CreateSQLiteStore(path, name string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", name, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		lookup TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init dataset %s: %w", name, err)
	}
	return &SQLiteStore{name: name, db: db}, nil
}

func (s *SQLiteStore) Name() string { return s.name }

func (s *SQLiteStore) Contains(ctx context.Context, key string) (bool, error) {
	s.queries.Add(1)
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM entries WHERE lookup = ? LIMIT 1`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("contains %q in %s: %w", key, s.name, err)
	}
	return true, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	s.queries.Add(1)
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM entries WHERE lookup = ? LIMIT 1`, key).Scan(&blob)
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

// Put inserts or replaces an entry. Only meaningful on stores opened with
// CreateSQLiteStore; a read-only store returns the driver's write error.
func (s *SQLiteStore) Put(ctx context.Context, key string, val interface{}) error {
	b, err := msgpack.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries (lookup, value) VALUES (?, ?)`, key, b)
	return err
}

func (s *SQLiteStore) Queries() int64 { return s.queries.Load() }

func (s *SQLiteStore) Close() error { return s.db.Close() }
