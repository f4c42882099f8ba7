package pagecache

import (
	"database/sql"
	"log/slog"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Sqlite is a Cache persisted to a sqlite database, for harvesting runs
// that span process restarts. Storage failures are logged and degrade
// to cache misses; they never fail a harvest.
type Sqlite struct {
	db *sql.DB
}

func OpenSqlite(path string) (*Sqlite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Sqlite{db: db}, nil
}

func (s *Sqlite) Close() error {
	return s.db.Close()
}

func (s *Sqlite) Get(key string) ([]byte, bool) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM pages WHERE key = ?`, key).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache read failed", "key", key, "err", err)
		return nil, false
	}
	return body, true
}

func (s *Sqlite) Put(key string, value []byte) {
	_, err := s.db.Exec(
		`INSERT INTO pages (key, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		slog.Warn("page cache write failed", "key", key, "err", err)
	}
}

func (s *Sqlite) Invalidate(key string) {
	_, err := s.db.Exec(`DELETE FROM pages WHERE key = ?`, key)
	if err != nil {
		slog.Warn("page cache invalidate failed", "key", key, "err", err)
	}
}

func (s *Sqlite) InvalidateAll() {
	_, err := s.db.Exec(`DELETE FROM pages`)
	if err != nil {
		slog.Warn("page cache invalidate failed", "err", err)
	}
}
