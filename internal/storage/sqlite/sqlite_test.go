package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rabinkhulimuli/blog-post-web-app/internal/storage"
)

var ctx = context.Background()

func newStorage(t *testing.T) storage.Storage {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	_, err = db.Exec(`
		CREATE TABLE kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	require.NoError(t, err)

	return New(db)
}

func TestDB_Get_notFound(t *testing.T) {
	s := newStorage(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDB_Set(t *testing.T) {
	s := newStorage(t)

	require.NoError(t, s.Set(ctx, "key", []byte("value")))

	v, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)
}

func TestDB_Set_overwrite(t *testing.T) {
	s := newStorage(t)

	require.NoError(t, s.Set(ctx, "key", []byte("one")))
	require.NoError(t, s.Set(ctx, "key", []byte("two")))

	v, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), v)
}
