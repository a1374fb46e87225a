package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forPelevin/beepsub/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	video_hash TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	version    INTEGER NOT NULL,
	updated_at REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_updated_at ON sessions(updated_at);
`

// SQLiteStore keeps one row per session with the JSON record in doc.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// sqliteDSN builds a file: URI for path. SQLite percent-decodes the path, so
// '?', '#' and '%' in directory names survive.
func sqliteDSN(path string) string {
	p := (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath()
	return "file:" + p + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, sess types.Session) (int64, error) {
	doc, err := json.Marshal(sess)
	if err != nil {
		return 0, fmt.Errorf("encode session: %w", err)
	}
	var v int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (video_hash, doc, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(video_hash) DO UPDATE SET
			doc = excluded.doc,
			version = sessions.version + 1,
			updated_at = excluded.updated_at
		RETURNING version
	`, sess.VideoHash, string(doc), unixSeconds(s.now())).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("put session %s: %w", sess.VideoHash, err)
	}
	return v, nil
}

func (s *SQLiteStore) Get(ctx context.Context, hash string) (Record, error) {
	var (
		doc     string
		rec     Record
		updated float64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT doc, version, updated_at
		FROM sessions
		WHERE video_hash = ?
	`, hash).Scan(&doc, &rec.Version, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", types.ErrNotFound, hash)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get session %s: %w", hash, err)
	}
	if err := json.Unmarshal([]byte(doc), &rec.Session); err != nil {
		return Record{}, fmt.Errorf("decode session %s: %w", hash, err)
	}
	rec.UpdatedAt = timeFromUnix(updated)
	return rec, nil
}

func (s *SQLiteStore) CompareAndSwap(ctx context.Context, sess types.Session, version int64) (int64, error) {
	doc, err := json.Marshal(sess)
	if err != nil {
		return 0, fmt.Errorf("encode session: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET doc = ?, version = version + 1, updated_at = ?
		WHERE video_hash = ? AND version = ?
	`, string(doc), unixSeconds(s.now()), sess.VideoHash, version)
	if err != nil {
		return 0, fmt.Errorf("update session %s: %w", sess.VideoHash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update session %s: %w", sess.VideoHash, err)
	}
	if n == 1 {
		return version + 1, nil
	}
	var cur int64
	err = s.db.QueryRowContext(ctx, `SELECT version FROM sessions WHERE video_hash = ?`, sess.VideoHash).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", types.ErrNotFound, sess.VideoHash)
	}
	if err != nil {
		return 0, fmt.Errorf("read session version %s: %w", sess.VideoHash, err)
	}
	return 0, fmt.Errorf("%w: %s at version %d, have %d", types.ErrConflict, sess.VideoHash, cur, version)
}

func (s *SQLiteStore) Delete(ctx context.Context, hash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE video_hash = ?`, hash); err != nil {
		return fmt.Errorf("delete session %s: %w", hash, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteIfVersion(ctx context.Context, hash string, version int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE video_hash = ? AND version = ?
	`, hash, version)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", hash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", hash, err)
	}
	if n == 1 {
		return nil
	}
	var cur int64
	err = s.db.QueryRowContext(ctx, `SELECT version FROM sessions WHERE video_hash = ?`, hash).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session version %s: %w", hash, err)
	}
	return fmt.Errorf("%w: %s at version %d, have %d", types.ErrConflict, hash, cur, version)
}

func (s *SQLiteStore) Stale(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_hash
		FROM sessions
		WHERE updated_at < ?
		ORDER BY video_hash ASC
	`, unixSeconds(before))
	if err != nil {
		return nil, fmt.Errorf("query stale sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan session hash: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9))
}
