package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"slate-cli/internal/canvas"
	"slate-cli/internal/model"
)

const (
	libraryFileName = "library.sqlite"
	schemaVersion   = "1"
)

// NotFoundError is returned when a document reference matches nothing.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

var ErrAmbiguous = errors.New("store: ambiguous document reference")

// DocumentInfo is the listing form of a document.
type DocumentInfo struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	LastAccess time.Time `json:"lastAccess"`
	Objects    int       `json:"objects"`
}

// History is the persisted undo history of a document: the canvas
// snapshots and the image reference counts, each with its own head.
type History struct {
	Entries    []canvas.Snapshot `json:"entries"`
	Head       int               `json:"head"`
	Counts     []map[string]int  `json:"counts"`
	CountsHead int               `json:"countsHead"`
}

// Library keeps documents, their image assets and their undo history in a
// single SQLite file.
type Library struct {
	Path string
	db   *sql.DB
	log  *slog.Logger
}

// DefaultLibraryPath returns the library file inside the config directory.
func DefaultLibraryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, libraryFileName), nil
}

// OpenLibrary opens (creating if needed) the library at path and brings its
// schema up to date.
func OpenLibrary(ctx context.Context, path string, log *slog.Logger) (*Library, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store: empty library path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the TUI read while a CLI command writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateLibrary(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("library opened", "path", path)
	return &Library{Path: path, db: db, log: log}, nil
}

func migrateLibrary(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS documents (
			uuid TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			last_access TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name);`,
		`CREATE TABLE IF NOT EXISTS assets (
			doc_uuid TEXT NOT NULL REFERENCES documents(uuid) ON DELETE CASCADE,
			handle TEXT NOT NULL,
			kind TEXT NOT NULL,
			data BLOB NOT NULL,
			ref_count INTEGER NOT NULL,
			PRIMARY KEY (doc_uuid, handle)
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			doc_uuid TEXT PRIMARY KEY REFERENCES documents(uuid) ON DELETE CASCADE,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO meta(k, v) VALUES('schema_version', ?)`, schemaVersion)
	return err
}

func (l *Library) Close() error { return l.db.Close() }

// Create stores a new empty document.
func (l *Library) Create(ctx context.Context, name string) (*Document, error) {
	doc := NewDocument(name)
	doc.Touch(time.Now())
	if err := l.Save(ctx, doc); err != nil {
		return nil, err
	}
	l.log.Debug("document created", "uuid", doc.UUID, "name", doc.Name)
	return doc, nil
}

// Save inserts or replaces doc.
func (l *Library) Save(ctx context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("store: nil document")
	}
	doc.Version = DocumentVersion
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, `INSERT INTO documents(uuid, name, last_access, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET name=excluded.name, last_access=excluded.last_access, json=excluded.json, updated_at_unixms=excluded.updated_at_unixms`,
		doc.UUID, doc.Name, doc.LastAccess, string(raw), time.Now().UTC().UnixMilli())
	return err
}

// Get loads the document with the given uuid.
func (l *Library) Get(ctx context.Context, id string) (*Document, error) {
	var raw string
	err := l.db.QueryRowContext(ctx, `SELECT json FROM documents WHERE uuid = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFoundError{Kind: "document", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return ParseDocument([]byte(raw))
}

// Find resolves ref as a full uuid, then an exact name, then a uuid prefix.
func (l *Library) Find(ctx context.Context, ref string) (*Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, NotFoundError{Kind: "document", ID: ref}
	}
	if doc, err := l.Get(ctx, ref); err == nil {
		return doc, nil
	} else if !errors.As(err, new(NotFoundError)) {
		return nil, err
	}
	for _, q := range []string{
		`SELECT uuid FROM documents WHERE name = ?`,
		`SELECT uuid FROM documents WHERE uuid LIKE ? || '%'`,
	} {
		ids, err := l.queryIDs(ctx, q, ref)
		if err != nil {
			return nil, err
		}
		switch len(ids) {
		case 0:
			continue
		case 1:
			return l.Get(ctx, ids[0])
		default:
			return nil, fmt.Errorf("%w: %q matches %d documents", ErrAmbiguous, ref, len(ids))
		}
	}
	return nil, NotFoundError{Kind: "document", ID: ref}
}

func (l *Library) queryIDs(ctx context.Context, q string, arg string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// List returns every document, most recently accessed first.
func (l *Library) List(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT json FROM documents ORDER BY last_access DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DocumentInfo{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := ParseDocument([]byte(raw))
		if err != nil {
			l.log.Warn("skipping unreadable document", "err", err)
			continue
		}
		info := DocumentInfo{UUID: doc.UUID, Name: doc.Name, LastAccess: doc.LastAccessTime()}
		if root := doc.Root(); root != nil {
			info.Objects = countObjects(root.Content.Objects)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a document together with its assets and history.
func (l *Library) Delete(ctx context.Context, id string) error {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE uuid = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Kind: "document", ID: id}
	}
	for _, t := range []string{"assets", "history"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t+` WHERE doc_uuid = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (l *Library) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("store: document name is empty")
	}
	doc, err := l.Get(ctx, id)
	if err != nil {
		return err
	}
	doc.Name = name
	return l.Save(ctx, doc)
}

// Touch records that the document was opened now.
func (l *Library) Touch(ctx context.Context, id string, now time.Time) error {
	doc, err := l.Get(ctx, id)
	if err != nil {
		return err
	}
	doc.Touch(now)
	return l.Save(ctx, doc)
}

// SaveHistory replaces the stored undo history of a document.
func (l *Library) SaveHistory(ctx context.Context, id string, h History) error {
	raw, err := json.Marshal(h)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, `INSERT INTO history(doc_uuid, json, updated_at_unixms) VALUES(?, ?, ?)
		ON CONFLICT(doc_uuid) DO UPDATE SET json=excluded.json, updated_at_unixms=excluded.updated_at_unixms`,
		id, string(raw), time.Now().UTC().UnixMilli())
	return err
}

// LoadHistory returns the stored history of a document, or nil when none
// was saved.
func (l *Library) LoadHistory(ctx context.Context, id string) (*History, error) {
	var raw string
	err := l.db.QueryRowContext(ctx, `SELECT json FROM history WHERE doc_uuid = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var h History
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return nil, fmt.Errorf("store: history of %s: %w", id, err)
	}
	return &h, nil
}

// SaveSnapshot stores snap as the document content and records the access.
func (l *Library) SaveSnapshot(ctx context.Context, doc *Document, snap canvas.Snapshot) error {
	doc.Data = &DocumentData{LastObjectID: snap.LastObjectID, Data: snap.Data}
	doc.Touch(time.Now())
	return l.Save(ctx, doc)
}

func countObjects(objs []model.ObjectData) int {
	n := 0
	for _, o := range objs {
		n += 1 + countObjects(o.Content.Objects)
	}
	return n
}

// Revision is the last time, in unix milliseconds, that the document or its
// history was written. Viewers poll it to notice edits made elsewhere.
func (l *Library) Revision(ctx context.Context, id string) (int64, error) {
	var rev sql.NullInt64
	err := l.db.QueryRowContext(ctx, `SELECT MAX(t) FROM (
		SELECT updated_at_unixms AS t FROM documents WHERE uuid = ?
		UNION ALL
		SELECT updated_at_unixms AS t FROM history WHERE doc_uuid = ?)`, id, id).Scan(&rev)
	if err != nil {
		return 0, err
	}
	if !rev.Valid {
		return 0, NotFoundError{Kind: "document", ID: id}
	}
	return rev.Int64, nil
}
