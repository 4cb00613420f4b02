package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Materials-Consortia/optimade-go/internal/sqlutil"
)

// Store is a SQLite catalog of entries, one JSON document per row.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog at path. Use ":memory:" for an
// ephemeral catalog.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id   TEXT NOT NULL,
			type TEXT NOT NULL,
			doc  TEXT NOT NULL,
			PRIMARY KEY (type, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create entries table: %w", err)
	}
	return nil
}

// Insert stores one entry document, replacing any previous version.
func (s *Store) Insert(ctx context.Context, id, entryType string, doc map[string]any) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode entry %q: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries (id, type, doc) VALUES (?, ?, ?)`,
		id, entryType, string(encoded))
	if err != nil {
		return fmt.Errorf("failed to store entry %q: %w", id, err)
	}
	return nil
}

// Select returns the ids of entries of the given type matching the
// compiled filter clause, in id order.
func (s *Store) Select(ctx context.Context, entryType string, clause Clause) ([]string, error) {
	query := `SELECT id FROM entries WHERE type = ? AND (` + clause.SQL + `) ORDER BY id`
	args := append([]any{entryType}, clause.Args...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (string, error) {
		var id string
		err := rows.Scan(&id)
		return id, err
	})
}

// Fetch returns the documents for the given ids, keyed by id. Missing
// ids are absent from the result.
func (s *Store) Fetch(ctx context.Context, entryType string, ids []string) (map[string]map[string]any, error) {
	placeholders, inArgs := sqlutil.InClauseArgs(ids)
	query := `SELECT id, doc FROM entries WHERE type = ? AND id IN (` + placeholders + `)`
	args := append([]any{entryType}, inArgs...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries: %w", err)
	}

	type entry struct {
		id  string
		doc map[string]any
	}
	entries, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (entry, error) {
		var e entry
		var raw string
		if err := rows.Scan(&e.id, &raw); err != nil {
			return e, err
		}
		if err := json.Unmarshal([]byte(raw), &e.doc); err != nil {
			return e, fmt.Errorf("failed to decode entry %q: %w", e.id, err)
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	docs := make(map[string]map[string]any, len(entries))
	for _, e := range entries {
		docs[e.id] = e.doc
	}
	return docs, nil
}
