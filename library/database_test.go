package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseEmptyLoad(t *testing.T) {
	db := tempDB(t)

	data, err := db.Load()
	require.NoError(t, err)
	assert.Empty(t, data.Books)
	assert.Empty(t, data.Reservations)

	mgr := newManager(t, newFakeClock())
	require.NoError(t, mgr.Restore(data))
	assert.Zero(t, mgr.Books.Len())
}

func TestDatabaseRoundTrip(t *testing.T) {
	clock := newFakeClock()
	mgr := populatedManager(t, clock)
	db := tempDB(t)

	require.NoError(t, mgr.Save(db))

	restored := newManager(t, clock)
	require.NoError(t, restored.Load(db))
	assert.Equal(t, mgr.Snapshot(), restored.Snapshot())
}

func TestDatabaseSaveReplacesState(t *testing.T) {
	clock := newFakeClock()
	db := tempDB(t)
	mgr := populatedManager(t, clock)
	require.NoError(t, mgr.Save(db))

	smaller := newManager(t, clock)
	_, err := smaller.AddBook("Only Book", "Author", "9780000000001", 0)
	require.NoError(t, err)
	require.NoError(t, smaller.Save(db))

	data, err := db.Load()
	require.NoError(t, err)
	require.Len(t, data.Books, 1)
	assert.Equal(t, "Only Book", data.Books[0].Title)
	assert.Empty(t, data.Loans)
	assert.Equal(t, int64(2), data.NextBookID)
}

func TestDatabaseReopen(t *testing.T) {
	clock := newFakeClock()
	path := filepath.Join(t.TempDir(), "lib.db")

	db, err := NewDatabase(path)
	require.NoError(t, err)
	mgr := populatedManager(t, clock)
	require.NoError(t, mgr.Save(db))
	require.NoError(t, db.Close())

	db, err = NewDatabase(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	restored := newManager(t, clock)
	require.NoError(t, restored.Load(db))
	assert.Equal(t, mgr.Snapshot(), restored.Snapshot())

	id, err := restored.AddBook("After Reopen", "Author", "123", 0)
	require.NoError(t, err)
	assert.Equal(t, mgr.Snapshot().NextBookID, id, "id counters survive a reload")
}
