package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/glabrego/gallery-cli/internal/media"
)

type MuteKind string

const (
	MuteTag    MuteKind = "tag"
	MuteAuthor MuteKind = "author"
)

// HistoryEntry is one saved browsing position.
type HistoryEntry struct {
	Key     string
	Label   string
	State   []byte
	SavedAt time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS media_info (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  author TEXT,
  author_id TEXT,
  tags TEXT NOT NULL DEFAULT '[]',
  page_count INTEGER NOT NULL,
  width INTEGER NOT NULL DEFAULT 0,
  height INTEGER NOT NULL DEFAULT 0,
  url TEXT,
  fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS nav_history (
  key TEXT PRIMARY KEY,
  label TEXT NOT NULL,
  state TEXT NOT NULL,
  saved_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mutes (
  kind TEXT NOT NULL,
  value TEXT NOT NULL,
  PRIMARY KEY (kind, value)
);
`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable fails early when the database file can't be written.
func (r *Repository) CheckWritable(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS write_check (id INTEGER)`); err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	return nil
}

func (r *Repository) SaveInfo(ctx context.Context, infos []media.Info) error {
	if len(infos) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO media_info (id, title, author, author_id, tags, page_count, width, height, url, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title=excluded.title,
  author=excluded.author,
  author_id=excluded.author_id,
  tags=excluded.tags,
  page_count=excluded.page_count,
  width=excluded.width,
  height=excluded.height,
  url=excluded.url,
  fetched_at=excluded.fetched_at
`)
	if err != nil {
		return fmt.Errorf("prepare save statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, info := range infos {
		tags, err := json.Marshal(nonNil(info.Tags))
		if err != nil {
			return fmt.Errorf("encode tags for %s: %w", info.ID, err)
		}
		_, err = stmt.ExecContext(
			ctx,
			info.ID.String(),
			info.Title,
			info.Author,
			info.AuthorID,
			string(tags),
			info.PageCount,
			info.Width,
			info.Height,
			info.URL,
			now,
		)
		if err != nil {
			return fmt.Errorf("save info %s: %w", info.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LoadInfo returns whatever is cached for ids. Missing ids are skipped.
func (r *Repository) LoadInfo(ctx context.Context, ids []media.ID) ([]media.Info, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id.String())
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, author, author_id, tags, page_count, width, height, url
FROM media_info
WHERE id IN (`+placeholders+`)
`, args...)
	if err != nil {
		return nil, fmt.Errorf("query media info: %w", err)
	}
	defer rows.Close()

	out := make([]media.Info, 0, len(ids))
	for rows.Next() {
		var (
			info             media.Info
			rawID, tags      string
			author, authorID sql.NullString
			url              sql.NullString
		)
		if err := rows.Scan(&rawID, &info.Title, &author, &authorID, &tags, &info.PageCount, &info.Width, &info.Height, &url); err != nil {
			return nil, fmt.Errorf("scan media info: %w", err)
		}
		info.ID, err = media.ParseID(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse media info id %q: %w", rawID, err)
		}
		if err := json.Unmarshal([]byte(tags), &info.Tags); err != nil {
			return nil, fmt.Errorf("parse tags for %s: %w", rawID, err)
		}
		info.Author = author.String
		info.AuthorID = authorID.String
		info.URL = url.String
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (r *Repository) SaveHistory(ctx context.Context, entry HistoryEntry) error {
	savedAt := entry.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO nav_history (key, label, state, saved_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  label=excluded.label,
  state=excluded.state,
  saved_at=excluded.saved_at
`, entry.Key, entry.Label, string(entry.State), savedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save history %s: %w", entry.Key, err)
	}
	return nil
}

// LoadHistory returns the entry for key. ok is false when none is saved.
func (r *Repository) LoadHistory(ctx context.Context, key string) (HistoryEntry, bool, error) {
	var (
		entry          HistoryEntry
		state, savedAt string
	)
	err := r.db.QueryRowContext(ctx, `
SELECT key, label, state, saved_at FROM nav_history WHERE key = ?
`, key).Scan(&entry.Key, &entry.Label, &state, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, false, nil
	}
	if err != nil {
		return HistoryEntry{}, false, fmt.Errorf("load history %s: %w", key, err)
	}
	entry.State = []byte(state)
	entry.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return HistoryEntry{}, false, fmt.Errorf("parse history saved_at %q: %w", savedAt, err)
	}
	return entry, true, nil
}

func (r *Repository) AddMute(ctx context.Context, kind MuteKind, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("mute value is required")
	}
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO mutes (kind, value) VALUES (?, ?)`, string(kind), value)
	if err != nil {
		return fmt.Errorf("add mute %s %q: %w", kind, value, err)
	}
	return nil
}

// ListMutes returns muted tags and author ids.
func (r *Repository) ListMutes(ctx context.Context) ([]string, []string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, value FROM mutes ORDER BY kind, value`)
	if err != nil {
		return nil, nil, fmt.Errorf("query mutes: %w", err)
	}
	defer rows.Close()

	var tags, authors []string
	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return nil, nil, fmt.Errorf("scan mute: %w", err)
		}
		switch MuteKind(kind) {
		case MuteTag:
			tags = append(tags, value)
		case MuteAuthor:
			authors = append(authors, value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows iteration: %w", err)
	}
	return tags, authors, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
