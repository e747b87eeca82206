package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/buriosa/buriosa/internal/errors"
)

// Record is one row of the key-value table.
type Record struct {
	Key       string
	Value     []byte
	Revision  int64
	UpdatedAt int64
}

// GetValue retrieves the record stored under key.
// Returns a NOT_FOUND error if the key is absent.
func GetValue(ctx context.Context, db *sql.DB, key string) (*Record, error) {
	query := `
		SELECT key, value, revision, updated_at
		FROM kv_store
		WHERE key = ?
	`

	var r Record
	err := db.QueryRowContext(ctx, query, key).Scan(&r.Key, &r.Value, &r.Revision, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("key", key)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return &r, nil
}

// PutValue replaces the value stored under key and bumps its revision.
// Returns the new revision.
func PutValue(ctx context.Context, db *sql.DB, key string, value []byte) (int64, error) {
	now := time.Now().Unix()

	// Atomic upsert: whole-object replace, revision counts writes
	query := `
		INSERT INTO kv_store (key, value, revision, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = kv_store.revision + 1,
			updated_at = excluded.updated_at
		RETURNING revision
	`

	var revision int64
	if err := db.QueryRowContext(ctx, query, key, value, now).Scan(&revision); err != nil {
		return 0, errors.NewInternal(err)
	}

	return revision, nil
}

// DeleteValue removes key. Deleting a missing key is not an error.
func DeleteValue(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListKeys returns all stored keys in lexical order.
func ListKeys(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key FROM kv_store ORDER BY key`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.NewInternal(err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return keys, nil
}
