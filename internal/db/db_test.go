package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()

	db, err := Init(tmpDir)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, filepath.Join(tmpDir, FileName))

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var columns []string
	rows, err := db.Query("SELECT name FROM pragma_table_info('kv_store') ORDER BY cid")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"key", "value", "revision", "updated_at"}, columns)
}

func TestInit_CreatesDirectories(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "nested", "path", ".buriosa")

	db, err := Init(baseDir)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(baseDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestUserVersion(t *testing.T) {
	db, err := Init(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	version, err := GetUserVersion(db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	require.NoError(t, SetUserVersion(db, 99))
	version, err = GetUserVersion(db)
	require.NoError(t, err)
	assert.Equal(t, 99, version)
}

func TestInit_MigrationIdempotent(t *testing.T) {
	tmpDir := t.TempDir()

	db1, err := Init(tmpDir)
	require.NoError(t, err)
	_, err = PutValue(t.Context(), db1, "k", []byte("v"))
	require.NoError(t, err)
	db1.Close()

	db2, err := Init(tmpDir)
	require.NoError(t, err)
	defer db2.Close()

	version, err := GetUserVersion(db2)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	rec, err := GetValue(t.Context(), db2, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), rec.Value)
}

func TestInit_RejectsNewerSchema(t *testing.T) {
	tmpDir := t.TempDir()

	db1, err := Init(tmpDir)
	require.NoError(t, err)
	require.NoError(t, SetUserVersion(db1, CurrentSchemaVersion+1))
	db1.Close()

	_, err = Init(tmpDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}
