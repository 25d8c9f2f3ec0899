package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/vecmath"
)

// DBFile is the database file name inside the index directory.
const DBFile = "index.db"

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is a SQLite-backed collection of chunk vectors.
type VectorStore struct {
	db         *sql.DB
	path       string
	collection string
}

// Open opens (creating if needed) the collection name in the database under dir.
// Opening an existing collection is idempotent. If dir is empty, defaults to
// ~/.nexuspj/index.
func Open(dir, name string) (*VectorStore, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)
	}

	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, storageErr("open", name, fmt.Errorf("getting home directory: %w", err))
		}
		dir = filepath.Join(home, ".nexuspj", "index")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, storageErr("open", name, fmt.Errorf("creating index directory: %w", err))
	}

	dbPath := filepath.Join(dir, DBFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, storageErr("open", name, fmt.Errorf("opening database: %w", err))
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, storageErr("open", name, fmt.Errorf("enabling foreign keys: %w", err))
	}

	s := &VectorStore{
		db:         db,
		path:       dbPath,
		collection: name,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, storageErr("open", name, fmt.Errorf("running migrations: %w", err))
	}

	if _, err := db.Exec("INSERT OR IGNORE INTO collections (name) VALUES (?)", name); err != nil {
		db.Close()
		return nil, storageErr("open", name, fmt.Errorf("creating collection: %w", err))
	}

	return s, nil
}

// Collection returns the collection name.
func (s *VectorStore) Collection() string {
	return s.collection
}

// Path returns the database file path.
func (s *VectorStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

// Insert writes entries in a single transaction. The whole batch is rolled
// back if any entry has a duplicate ID or a vector of the wrong size.
func (s *VectorStore) Insert(ctx context.Context, entries []driven.VectorEntry) (err error) {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("insert", s.collection, fmt.Errorf("beginning transaction: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var dims int
	row := tx.QueryRowContext(ctx, "SELECT dimensions FROM collections WHERE name = ?", s.collection)
	if err := row.Scan(&dims); err != nil {
		return storageErr("insert", s.collection, fmt.Errorf("reading collection: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO vectors (collection, id, embedding, payload) VALUES (?, ?, ?, ?)")
	if err != nil {
		return storageErr("insert", s.collection, fmt.Errorf("preparing insert: %w", err))
	}
	defer stmt.Close()

	for _, e := range entries {
		if len(e.Vector) == 0 {
			return storageErr("insert", s.collection, fmt.Errorf("entry %s: empty vector", e.ID))
		}
		if dims == 0 {
			dims = len(e.Vector)
		}
		if len(e.Vector) != dims {
			return storageErr("insert", s.collection,
				fmt.Errorf("entry %s: vector has %d dimensions, collection has %d", e.ID, len(e.Vector), dims))
		}

		payloadJSON, err := json.Marshal(e.Payload)
		if err != nil {
			return storageErr("insert", s.collection, fmt.Errorf("marshalling payload: %w", err))
		}

		if _, err := stmt.ExecContext(ctx, s.collection, e.ID, float32SliceToBytes(e.Vector), string(payloadJSON)); err != nil {
			return storageErr("insert", s.collection, fmt.Errorf("entry %s: %w", e.ID, err))
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE collections SET dimensions = ? WHERE name = ? AND dimensions = 0", dims, s.collection); err != nil {
		return storageErr("insert", s.collection, fmt.Errorf("recording dimensions: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return storageErr("insert", s.collection, fmt.Errorf("committing: %w", err))
	}
	return nil
}

// Search scans the collection and returns the k entries most similar to query.
func (s *VectorStore) Search(ctx context.Context, query []float32, k int) ([]driven.VectorMatch, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, embedding, payload FROM vectors WHERE collection = ? ORDER BY seq", s.collection)
	if err != nil {
		return nil, storageErr("search", s.collection, fmt.Errorf("querying vectors: %w", err))
	}
	defer rows.Close()

	type row struct {
		id      string
		payload string
	}
	var (
		stored []row
		scores []float64
	)
	for rows.Next() {
		var r row
		var blob []byte
		if err := rows.Scan(&r.id, &blob, &r.payload); err != nil {
			return nil, storageErr("search", s.collection, fmt.Errorf("scanning vector: %w", err))
		}
		vec := bytesToFloat32Slice(blob)
		if len(vec) != len(query) {
			return nil, storageErr("search", s.collection,
				fmt.Errorf("query has %d dimensions, collection has %d", len(query), len(vec)))
		}
		stored = append(stored, r)
		scores = append(scores, vecmath.Cosine(query, vec))
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("search", s.collection, fmt.Errorf("iterating vectors: %w", err))
	}

	if len(stored) == 0 {
		return nil, domain.ErrEmptyIndex
	}

	ranked := vecmath.TopK(scores, k)
	matches := make([]driven.VectorMatch, len(ranked))
	for i, r := range ranked {
		var payload map[string]string
		if err := json.Unmarshal([]byte(stored[r.Index].payload), &payload); err != nil {
			return nil, storageErr("search", s.collection, fmt.Errorf("entry %s: corrupt payload: %w", stored[r.Index].id, err))
		}
		matches[i] = driven.VectorMatch{
			ID:         stored[r.Index].id,
			Payload:    payload,
			Similarity: r.Score,
		}
	}
	return matches, nil
}

// Count returns the number of entries in the collection.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors WHERE collection = ?", s.collection)
	if err := row.Scan(&n); err != nil {
		return 0, storageErr("count", s.collection, err)
	}
	return n, nil
}

// Collections lists every collection in the database with its entry count.
func (s *VectorStore) Collections(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, COUNT(v.seq)
		FROM collections c LEFT JOIN vectors v ON v.collection = c.name
		GROUP BY c.name`)
	if err != nil {
		return nil, storageErr("list", s.collection, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, storageErr("list", s.collection, err)
		}
		out[name] = n
	}
	return out, rows.Err()
}

// migrate runs all pending migrations.
func (s *VectorStore) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_vectors.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

func storageErr(op, collection string, err error) error {
	var se *domain.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StorageError{Op: op, Collection: collection, Err: err}
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
