package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const lockTimeout = 5 * time.Second

// Store keeps session snapshots in sqlite so separate CLI invocations share
// them. Entries never expire: they are replaced by Set or removed by Delete.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

type Snapshot struct {
	Hit       bool
	Value     []byte
	UpdatedAt time.Time
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	queries := []string{
		"PRAGMA busy_timeout=5000;",
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"CREATE TABLE IF NOT EXISTS session_snapshots (key TEXT PRIMARY KEY, value BLOB NOT NULL, updated_at INTEGER NOT NULL);",
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init cache schema: %w", err)
		}
	}

	return &Store{db: db, lock: flock.New(lockPath)}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(key string) (Snapshot, error) {
	var value []byte
	var updatedUnix int64
	err := s.db.QueryRow("SELECT value, updated_at FROM session_snapshots WHERE key = ?", key).Scan(&value, &updatedUnix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{Hit: false}, nil
		}
		return Snapshot{}, fmt.Errorf("cache read: %w", err)
	}
	return Snapshot{
		Hit:       true,
		Value:     value,
		UpdatedAt: time.Unix(0, updatedUnix).UTC(),
	}, nil
}

// Set replaces the snapshot stored under key. Concurrent writers serialize on
// the file lock and the last writer wins.
func (s *Store) Set(key string, value []byte) error {
	unlock, err := s.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	_, err = s.db.Exec(`
		INSERT INTO session_snapshots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`, key, value, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	unlock, err := s.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.db.Exec("DELETE FROM session_snapshots WHERE key = ?", key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (s *Store) acquire() (func(), error) {
	locked, err := s.lock.TryLockContext(context.Background(), lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock cache: timeout acquiring lock")
	}
	return func() { _ = s.lock.Unlock() }, nil
}
