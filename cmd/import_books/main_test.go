package main

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/library"
)

const sample = `title,author,isbn,year,categories
The Hobbit,J.R.R. Tolkien,978-0-261-10221-7,1937,Fantasy;Adventure
Dune,Frank Herbert,9780441013593,,Science Fiction
,Nobody,123,2000,
Duplicate Hobbit,Someone,9780261102217,1990,
Bad Year,Author,111,nineteen,
Short row,Author
`

func TestImportBooks(t *testing.T) {
	mgr, err := library.NewLibraryManager(library.ManagerConfig{})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	imported, skipped, err := importBooks(mgr, strings.NewReader(sample), logger)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 4, skipped)

	hobbit, err := mgr.Books.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 1937, hobbit.Year)
	assert.Equal(t, []string{"Fantasy", "Adventure"}, hobbit.Categories)

	dune, err := mgr.Books.Get(2)
	require.NoError(t, err)
	assert.Zero(t, dune.Year)

	assert.Equal(t, []string{"Adventure", "Fantasy", "Science Fiction"}, mgr.Categories.Categories())
	ids, err := mgr.Categories.BooksByCategory("Science Fiction")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestImportBooksSkipsKnownISBN(t *testing.T) {
	mgr, err := library.NewLibraryManager(library.ManagerConfig{})
	require.NoError(t, err)
	_, err = mgr.AddBook("Dune", "Frank Herbert", "978-0441013593", 1965)
	require.NoError(t, err)

	imported, skipped, err := importBooks(mgr, strings.NewReader("Dune,Frank Herbert,9780441013593,1965,\n"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Zero(t, imported)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, mgr.Books.Len())
}
