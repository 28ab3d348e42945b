package statestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zeromem/internal/ir"
)

// createTestSQLite opens a fresh database in a temp dir.
func createTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_Contract(t *testing.T) {
	runContract(t, createTestSQLite(t))
}

func TestSQLite_Pragmas(t *testing.T) {
	s := createTestSQLite(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestSQLite_OpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "k", ir.IRString("v")))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	got, found, err := second.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ir.IRString("v"), got)
}

func TestSQLite_VersionCountsWrites(t *testing.T) {
	ctx := context.Background()
	s := createTestSQLite(t)

	require.NoError(t, s.Save(ctx, "k", ir.IRInt(1)))
	require.NoError(t, s.Save(ctx, "k", ir.IRInt(2)))
	require.NoError(t, s.Save(ctx, "k", ir.IRInt(3)))

	var version int64
	require.NoError(t, s.db.QueryRow(`SELECT version FROM state WHERE key = ?`, "k").Scan(&version))
	assert.Equal(t, int64(3), version)
}

func TestSQLite_StoresCanonicalJSON(t *testing.T) {
	ctx := context.Background()
	s := createTestSQLite(t)
	require.NoError(t, s.Save(ctx, "k", ir.IRObject{"b": ir.IRInt(1), "a": ir.IRString("<x>")}))

	var raw string
	require.NoError(t, s.db.QueryRow(`SELECT value FROM state WHERE key = ?`, "k").Scan(&raw))
	assert.Equal(t, `{"a":"<x>","b":1}`, raw)
}

func TestSQLite_CorruptValue(t *testing.T) {
	ctx := context.Background()
	s := createTestSQLite(t)
	_, err := s.db.Exec(`INSERT INTO state (key, value) VALUES ('bad', 'not json')`)
	require.NoError(t, err)

	_, _, err = s.Load(ctx, "bad")
	assert.ErrorContains(t, err, `load state "bad"`)
}

func TestSQLite_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = OpenSQLite(path)
	assert.ErrorContains(t, err, "newer than supported")
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(context.Background(), Options{Backend: BackendSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
