package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyquests/internal/config"
)

// exerciseStore runs the shared contract every backend must meet.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, "DailyQuests", "Data")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "DailyQuests", "Data", []byte(`{"date":"2026-03-14"}`)))
	require.NoError(t, s.Save(ctx, "DailyQuests", "Other", []byte(`other`)))

	got, err := s.Load(ctx, "DailyQuests", "Data")
	require.NoError(t, err)
	assert.Equal(t, `{"date":"2026-03-14"}`, string(got))

	require.NoError(t, s.Save(ctx, "DailyQuests", "Data", []byte(`v2`)))
	got, err = s.Load(ctx, "DailyQuests", "Data")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	require.NoError(t, s.Delete(ctx, "DailyQuests", "Data"))
	_, err = s.Load(ctx, "DailyQuests", "Data")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "DailyQuests", "Data"), "deleting twice is fine")

	got, err = s.Load(ctx, "DailyQuests", "Other")
	require.NoError(t, err)
	assert.Equal(t, "other", string(got))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	blob := []byte("abc")
	require.NoError(t, s.Save(ctx, "ns", "k", blob))
	blob[0] = 'x'

	got, err := s.Load(ctx, "ns", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_LayoutAndPathSafety(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "DailyQuests", "Data", []byte("{}")))
	_, err = os.Stat(filepath.Join(dir, "DailyQuests", "Data.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "DailyQuests", "Data.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")

	for _, bad := range []string{"", "..", "a/b", `a\b`} {
		assert.Error(t, s.Save(ctx, bad, "Data", nil), "namespace %q", bad)
		_, err := s.Load(ctx, "DailyQuests", bad)
		assert.Error(t, err, "key %q", bad)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "saves.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "DailyQuests", "Data", []byte("kept")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, "DailyQuests", "Data")
	require.NoError(t, err)
	assert.Equal(t, "kept", string(got))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("DAILYQUESTS_TEST_REDIS")
	if addr == "" {
		t.Skip("DAILYQUESTS_TEST_REDIS not set")
	}
	ctx := context.Background()
	s, err := DialRedis(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Delete(ctx, "DailyQuests", "Other")
		_ = s.Close()
	})
	exerciseStore(t, s)
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, closer, err := Open(ctx, config.StorageSettings{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)
	assert.NoError(t, closer.Close())

	st, closer, err = Open(ctx, config.StorageSettings{Backend: "file", DataDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, st)
	assert.NoError(t, closer.Close())

	st, closer, err = Open(ctx, config.StorageSettings{Backend: "sqlite", SQLitePath: filepath.Join(dir, "s.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	assert.NoError(t, closer.Close())

	_, _, err = Open(ctx, config.StorageSettings{Backend: "tape"})
	assert.Error(t, err)
}
