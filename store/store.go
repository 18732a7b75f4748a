// Package store persists saved builds (document plus message log) in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"racedesk/document"
)

var ErrNotFound = errors.New("build not found")

// UntitledName is used when neither a name nor a headline is available.
const UntitledName = "Untitled Build"

const maxDefaultNameRunes = 80

const schema = `
CREATE TABLE IF NOT EXISTS builds (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	model      TEXT NOT NULL DEFAULT '',
	document   TEXT NOT NULL,
	messages   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_builds_created ON builds(created_at DESC);
`

// Build is one saved snapshot of a session.
type Build struct {
	ID        string             `json:"id" yaml:"id"`
	Name      string             `json:"name" yaml:"name"`
	Model     string             `json:"model" yaml:"model"`
	Document  document.Document  `json:"document" yaml:"document"`
	Messages  []document.Message `json:"messages" yaml:"messages"`
	CreatedAt time.Time          `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" yaml:"updatedAt"`
}

// Store wraps the builds database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DefaultName derives a build name from the headline.
func DefaultName(doc document.Document) string {
	h := strings.TrimSpace(doc.Headline)
	if h == "" {
		return UntitledName
	}
	if utf8.RuneCountInString(h) > maxDefaultNameRunes {
		h = string([]rune(h)[:maxDefaultNameRunes])
	}
	return h
}

// Save stores a build. A build with the same name is updated in place and
// keeps its id and creation time.
func (s *Store) Save(ctx context.Context, name string, doc document.Document, msgs []document.Message, model string) (Build, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(doc)
	}
	b, docJSON, msgJSON, err := s.encode(name, doc, msgs, model)
	if err != nil {
		return Build{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Build{}, err
	}
	defer tx.Rollback()

	var createdMs int64
	err = tx.QueryRowContext(ctx, `SELECT id, created_at FROM builds WHERE name = ?`, name).Scan(&b.ID, &createdMs)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		b, err = insertBuild(ctx, tx, b, docJSON, msgJSON)
	case err == nil:
		b.CreatedAt = time.UnixMilli(createdMs).UTC()
		_, err = tx.ExecContext(ctx,
			`UPDATE builds SET model = ?, document = ?, messages = ?, updated_at = ? WHERE id = ?`,
			b.Model, docJSON, msgJSON, b.UpdatedAt.UnixMilli(), b.ID)
	}
	if err != nil {
		return Build{}, fmt.Errorf("save build %q: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return Build{}, err
	}
	return b, nil
}

// encode stamps a new build and serializes its document and messages.
func (s *Store) encode(name string, doc document.Document, msgs []document.Message, model string) (Build, string, string, error) {
	if msgs == nil {
		msgs = []document.Message{}
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return Build{}, "", "", fmt.Errorf("encode document: %w", err)
	}
	msgJSON, err := json.Marshal(msgs)
	if err != nil {
		return Build{}, "", "", fmt.Errorf("encode messages: %w", err)
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	b := Build{Name: name, Model: model, Document: doc, Messages: msgs, UpdatedAt: now}
	return b, string(docJSON), string(msgJSON), nil
}

// insertBuild adds b as a new row with a fresh id.
func insertBuild(ctx context.Context, tx *sql.Tx, b Build, docJSON, msgJSON string) (Build, error) {
	b.ID = uuid.NewString()
	b.CreatedAt = b.UpdatedAt
	_, err := tx.ExecContext(ctx,
		`INSERT INTO builds (id, name, model, document, messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Model, docJSON, msgJSON, b.CreatedAt.UnixMilli(), b.UpdatedAt.UnixMilli())
	return b, err
}

// List returns every build, newest first.
func (s *Store) List(ctx context.Context) ([]Build, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, model, document, messages, created_at, updated_at FROM builds ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Get loads one build. Legacy field names in the stored document are migrated.
func (s *Store) Get(ctx context.Context, id string) (Build, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, model, document, messages, created_at, updated_at FROM builds WHERE id = ?`, id)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, ErrNotFound
	}
	return b, err
}

// Duplicate copies a build under "<name> (Copy)", appending more " (Copy)"
// suffixes until the name is free. The name check and the insert run in one
// transaction and never touch an existing row.
func (s *Store) Duplicate(ctx context.Context, id string) (Build, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return Build{}, err
	}
	b, docJSON, msgJSON, err := s.encode(src.Name+" (Copy)", src.Document, src.Messages, src.Model)
	if err != nil {
		return Build{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Build{}, err
	}
	defer tx.Rollback()

	for {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM builds WHERE name = ?`, b.Name).Scan(&n); err != nil {
			return Build{}, err
		}
		if n == 0 {
			break
		}
		b.Name += " (Copy)"
	}
	if b, err = insertBuild(ctx, tx, b, docJSON, msgJSON); err != nil {
		return Build{}, fmt.Errorf("duplicate build %q: %w", src.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return Build{}, err
	}
	return b, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(sc scanner) (Build, error) {
	var (
		b                  Build
		docJSON, msgJSON   string
		createdMs, updated int64
	)
	if err := sc.Scan(&b.ID, &b.Name, &b.Model, &docJSON, &msgJSON, &createdMs, &updated); err != nil {
		return Build{}, err
	}
	if err := json.Unmarshal([]byte(docJSON), &b.Document); err != nil {
		return Build{}, fmt.Errorf("decode document for build %s: %w", b.ID, err)
	}
	if err := json.Unmarshal([]byte(msgJSON), &b.Messages); err != nil {
		return Build{}, fmt.Errorf("decode messages for build %s: %w", b.ID, err)
	}
	b.CreatedAt = time.UnixMilli(createdMs).UTC()
	b.UpdatedAt = time.UnixMilli(updated).UTC()
	return b, nil
}
