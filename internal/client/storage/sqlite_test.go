package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nutrinow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_AppliesMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nutrinow.db")
	ctx := context.Background()

	s1, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "k", "v"))
	require.NoError(t, s1.Close())

	s2, err := Open(ctx, path)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestSQLiteStore_GetAbsent(t *testing.T) {
	s := openStore(t)

	v, ok, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "currentUser", "old"))
	require.NoError(t, s.Set(ctx, "currentUser", "new"))

	v, ok, err := s.Get(ctx, "currentUser")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestSQLiteStore_RemoveIsIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "x", "1"))
	require.NoError(t, s.Remove(ctx, "x"))
	require.NoError(t, s.Remove(ctx, "x"))

	_, ok, err := s.Get(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_GetOrSet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	calls := 0
	create := func() string { calls++; return "generated" }

	v, err := s.GetOrSet(ctx, "sid", create)
	require.NoError(t, err)
	assert.Equal(t, "generated", v)

	v, err = s.GetOrSet(ctx, "sid", create)
	require.NoError(t, err)
	assert.Equal(t, "generated", v)
	assert.Equal(t, 1, calls)
}

func TestSQLiteStore_GetOrSetSharedAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	a, err := Open(ctx, path)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(ctx, path)
	require.NoError(t, err)
	defer b.Close()

	va, err := a.GetOrSet(ctx, "sid", func() string { return "from-a" })
	require.NoError(t, err)
	vb, err := b.GetOrSet(ctx, "sid", func() string { return "from-b" })
	require.NoError(t, err)

	assert.Equal(t, "from-a", va)
	assert.Equal(t, va, vb)
}

func TestSharedDSN(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/tmp/a.db", "/tmp/a.db?_pragma=busy_timeout(5000)&_txlock=immediate"},
		{"file:a.db?mode=rwc", "file:a.db?mode=rwc&_pragma=busy_timeout(5000)&_txlock=immediate"},
		{"a.db?_pragma=busy_timeout(100)", "a.db?_pragma=busy_timeout(100)&_txlock=immediate"},
		{"a.db?_pragma=busy_timeout(100)&_txlock=exclusive", "a.db?_pragma=busy_timeout(100)&_txlock=exclusive"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, sharedDSN(c.in), c.in)
	}
}

func TestOpen_WaitsOnLockedDatabase(t *testing.T) {
	s := openStore(t)

	var timeout int
	require.NoError(t, s.db.QueryRowContext(context.Background(), "PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, busyTimeoutMillis, timeout)
}

func TestSQLiteStore_ConcurrentGetOrSetAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	handles := make([]*SQLiteStore, 4)
	for i := range handles {
		s, err := Open(ctx, path)
		require.NoError(t, err)
		defer s.Close()
		handles[i] = s
	}

	const perHandle = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []string
		errs    []error
	)
	for i, s := range handles {
		for j := 0; j < perHandle; j++ {
			wg.Add(1)
			go func(s *SQLiteStore, candidate string) {
				defer wg.Done()
				v, err := s.GetOrSet(ctx, "sid", func() string { return candidate })
				mu.Lock()
				defer mu.Unlock()
				results = append(results, v)
				errs = append(errs, err)
			}(s, fmt.Sprintf("h%d-%d", i, j))
		}
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, results, len(handles)*perHandle)
	for _, v := range results {
		assert.Equal(t, results[0], v)
	}
}

func TestSQLiteStore_ErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewSQLiteStore(db)
	ctx := context.Background()
	boom := errors.New("boom")

	mock.ExpectQuery("SELECT value FROM local_storage").WithArgs("k").WillReturnError(boom)
	_, _, err = s.Get(ctx, "k")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to get k")

	mock.ExpectExec("INSERT INTO local_storage").WithArgs("k", "v").WillReturnError(boom)
	err = s.Set(ctx, "k", "v")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to set k")

	mock.ExpectExec("DELETE FROM local_storage").WithArgs("k").WillReturnError(boom)
	err = s.Remove(ctx, "k")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to remove k")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT value FROM local_storage").WithArgs("k").WillReturnError(boom)
	mock.ExpectRollback()
	_, err = s.GetOrSet(ctx, "k", func() string { return "v" })
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", "v"))
	v, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Remove(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.GetOrSet(ctx, "sid", func() string { return "once" })
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, "once", r)
	}
}
