package storage

import (
	"context"
	"database/sql"

	"github.com/buriosa/buriosa/internal/db"
	"github.com/buriosa/buriosa/internal/errors"
)

// SQLiteBackend stores values in the kv_store table of the local database.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend wraps an initialized database handle.
// The caller keeps ownership of the handle; Close is a no-op.
func NewSQLiteBackend(conn *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: conn}
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	rec, err := db.GetValue(ctx, b.db, key)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.Value, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := db.PutValue(ctx, b.db, key, value)
	return err
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	return db.DeleteValue(ctx, b.db, key)
}

func (b *SQLiteBackend) Close() error {
	return nil
}
