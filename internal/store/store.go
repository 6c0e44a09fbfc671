package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/promptforge/prompt-extract-mcp/internal/resolve"
)

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection holding extraction results keyed by
// input file.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

// Extraction is one stored resolution result.
type Extraction struct {
	RelPath     string         `json:"rel_path"`
	Hash        string         `json:"hash"`
	ExtractedAt string         `json:"extracted_at"`
	Positive    string         `json:"positive"`
	Negative    string         `json:"negative"`
	LaneA       []resolve.Lora `json:"lane_a"`
	LaneB       []resolve.Lora `json:"lane_b"`
}

// cacheDir returns the default cache directory for databases.
func cacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	dir := filepath.Join(home, ".cache", "prompt-extract-mcp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir cache: %w", err)
	}
	return dir, nil
}

// Open opens or creates the SQLite database for the given input root,
// named by the root's base name.
func Open(name string) (*Store, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, name+".db"))
}

// OpenPath opens a SQLite database at the given path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory SQLite database (for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	s := &Store{db: db, dbPath: ":memory:"}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WithTransaction executes fn within a single SQLite transaction.
// The callback receives a transaction-scoped Store; the receiver's q
// field is never mutated, so concurrent read-only callers are
// unaffected.
func (s *Store) WithTransaction(fn func(txStore *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB (for advanced queries).
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS inputs (
		rel_path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		extracted_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS extractions (
		rel_path TEXT PRIMARY KEY REFERENCES inputs(rel_path) ON DELETE CASCADE,
		positive TEXT NOT NULL DEFAULT '',
		negative TEXT NOT NULL DEFAULT '',
		lane_a TEXT NOT NULL DEFAULT '[]',
		lane_b TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_inputs_hash ON inputs(hash);
	`
	_, err := s.db.Exec(schema)
	return err
}

// marshalLane serializes a lane to JSON, never failing.
func marshalLane(lane []resolve.Lora) string {
	if lane == nil {
		return "[]"
	}
	b, err := json.Marshal(lane)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalLane(data string) []resolve.Lora {
	if data == "" || data == "[]" {
		return nil
	}
	var lane []resolve.Lora
	if err := json.Unmarshal([]byte(data), &lane); err != nil {
		return nil
	}
	return lane
}

// Now returns the current time in ISO 8601 format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
