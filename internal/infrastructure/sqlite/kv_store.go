package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/glint/internal/kvstore"
)

// KVStore implements kvstore.Store on the kv table.
type KVStore struct {
	db     *sql.DB
	now    func() time.Time
	closer func() error
}

var _ kvstore.Store = (*KVStore)(nil)

func newKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db, now: time.Now}
}

// Get returns the stored value for key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := kvstore.ValidateKey(key); err != nil {
		return nil, false, err
	}
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := kvstore.ValidateKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (s *KVStore) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM kv WHERE key = ?`, key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return time.Unix(ts, 0), true, nil
}

// Open opens the database at path and returns its KV store. Closing the
// store closes the database.
func Open(path string) (*KVStore, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, err
	}
	s := db.KV()
	s.closer = db.Close
	return s, nil
}

// Close closes the database when the store was created by Open.
func (s *KVStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
