package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadDataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	data := map[string]any{
		"key":    "value",
		"number": 123,
		"ratio":  1.5,
		"big":    float64(1e300),
		"flag":   true,
		"none":   nil,
		"nested": map[string]any{
			"list":  []any{"a", 1, -2.25, false},
			"title": "Władca Pierścieni",
		},
	}
	require.NoError(t, SaveData(data, path))

	loaded, err := LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestSaveDataOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "data.json")

	require.NoError(t, SaveData(map[string]any{"old": "x"}, path))
	require.NoError(t, SaveData(map[string]any{"new": "y"}, path))

	loaded, err := LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"new": "y"}, loaded)
}

func TestLoadDataErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadData(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadData(bad)
	assert.Error(t, err)
}

func TestSaveBooksAsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")
	books := NewBookRegistry()
	a, _ := books.Add("Book A for Save", "Author A", "111222333", 0)
	b, _ := books.Add("Book B for Save", "Author B", "444555666", 0)

	data := map[string]any{}
	for _, id := range []int64{a, b} {
		book, _ := books.Get(id)
		data[book.ISBN] = map[string]any{"title": book.Title, "author": book.Author}
	}
	require.NoError(t, SaveData(data, path))

	loaded, err := LoadData(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Book A for Save", loaded["111222333"].(map[string]any)["title"])
	assert.Equal(t, "Author B", loaded["444555666"].(map[string]any)["author"])
}

func TestSnapshotFileRoundTrip(t *testing.T) {
	clock := newFakeClock()
	mgr := populatedManager(t, clock)
	file := SnapshotFile{Path: filepath.Join(t.TempDir(), "library.json")}

	require.NoError(t, mgr.Save(file))

	restored := newManager(t, clock)
	require.NoError(t, restored.Load(file))
	assert.Equal(t, mgr.Snapshot(), restored.Snapshot())

	_, err := SnapshotFile{Path: filepath.Join(t.TempDir(), "none.json")}.Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
