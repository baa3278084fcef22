package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Backends for dataset lookups.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// ErrModelUnavailable reports that no trained model exists for a wiki, along
// with the wiki IDs that can be served instead.
type ErrModelUnavailable struct {
	WikiID string
	Valid  []string
}

func (e *ErrModelUnavailable) Error() string {
	return fmt.Sprintf("no link recommendation model for %q (valid: %s)",
		e.WikiID, strings.Join(e.Valid, ", "))
}

// Loader resolves the per-wiki dataset stores and the trained model path.
// One Loader serves one wiki for one request; the MySQL connection pool is
// shared across loaders and owned by the caller.
type Loader struct {
	backend string
	dataDir string
	wikiID  string
	db      *sql.DB // required for the mysql backend
	logger  *zap.Logger

	open []Store
}

// NewLoader creates a loader for one wiki. db may be nil for the sqlite
// backend.
func NewLoader(backend, dataDir, wikiID string, db *sql.DB, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{backend: backend, dataDir: dataDir, wikiID: wikiID, db: db, logger: logger}
}

// WikiID returns the wiki this loader serves.
func (l *Loader) WikiID() string { return l.wikiID }

// Open returns a store for the named dataset. The store is tracked and
// closed by Close.
func (l *Loader) Open(name string) (Store, error) {
	var (
		store Store
		err   error
	)
	switch l.backend {
	case BackendMySQL:
		if l.db == nil {
			return nil, fmt.Errorf("mysql backend requires a connection pool")
		}
		store = NewMySQLStore(l.db, l.wikiID, name)
	case BackendSQLite, "":
		store, err = NewSQLiteStore(l.datasetPath(name), name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown dataset backend %q", l.backend)
	}
	l.open = append(l.open, store)
	return store, nil
}

// ModelPath returns the path of the wiki's trained model file, or
// ErrModelUnavailable listing the wikis that do have one.
func (l *Loader) ModelPath() (string, error) {
	path := filepath.Join(l.dataDir, l.wikiID, l.wikiID+".linkmodel.bin")
	if _, err := os.Stat(path); err != nil {
		return "", &ErrModelUnavailable{WikiID: l.wikiID, Valid: ValidWikiIDs(l.dataDir)}
	}
	return path, nil
}

// Checksums returns the published checksum for each dataset, best effort:
// datasets without a recorded checksum are omitted.
func (l *Loader) Checksums(ctx context.Context) map[string]string {
	names := []string{DatasetAnchors, DatasetPageIDs, DatasetRedirects, DatasetEmbeddings, DatasetModel}
	out := make(map[string]string)
	for _, name := range names {
		sum, err := l.checksum(ctx, name)
		if err != nil {
			l.logger.Debug("checksum unavailable",
				zap.String("wiki_id", l.wikiID), zap.String("dataset", name), zap.Error(err))
			continue
		}
		out[name] = sum
	}
	return out
}

func (l *Loader) checksum(ctx context.Context, name string) (string, error) {
	if l.backend == BackendMySQL {
		if l.db == nil {
			return "", fmt.Errorf("no connection pool")
		}
		var sum string
		err := l.db.QueryRowContext(ctx,
			"SELECT value FROM checksums WHERE lookup = ? LIMIT 1",
			l.wikiID+"_"+name).Scan(&sum)
		if err != nil {
			return "", err
		}
		return sum, nil
	}
	path := l.checksumPath(name)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// QueryCounts returns the lookup round trips performed per opened dataset.
func (l *Loader) QueryCounts() map[string]int64 {
	out := make(map[string]int64, len(l.open))
	for _, s := range l.open {
		out[s.Name()] = s.Queries()
	}
	return out
}

// Close closes every store opened through this loader.
func (l *Loader) Close() error {
	var firstErr error
	for _, s := range l.open {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.open = nil
	return firstErr
}

func (l *Loader) datasetPath(name string) string {
	return filepath.Join(l.dataDir, l.wikiID, fmt.Sprintf("%s.%s.sqlite", l.wikiID, name))
}

func (l *Loader) checksumPath(name string) string {
	if name == DatasetModel {
		return filepath.Join(l.dataDir, l.wikiID, l.wikiID+".linkmodel.bin.checksum")
	}
	return l.datasetPath(name) + ".checksum"
}

// ValidWikiIDs lists the wikis under dataDir that have a trained model.
func ValidWikiIDs(dataDir string) []string {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		model := filepath.Join(dataDir, e.Name(), e.Name()+".linkmodel.bin")
		if _, err := os.Stat(model); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids
}
