package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCategorySetup(t *testing.T) (*CategoryIndex, *BookRegistry, int64, int64) {
	t.Helper()
	books := NewBookRegistry()
	b1, err := books.Add("Book One", "Author", "1", 0)
	require.NoError(t, err)
	b2, err := books.Add("Book Two", "Author", "2", 0)
	require.NoError(t, err)
	return NewCategoryIndex(books), books, b1, b2
}

func TestAddCategory(t *testing.T) {
	c, _, _, _ := newCategorySetup(t)

	require.NoError(t, c.AddCategory("Fantasy"))
	assert.Contains(t, c.Categories(), "Fantasy")

	err := c.AddCategory("Fantasy")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "category already exists")

	assert.ErrorIs(t, c.AddCategory(""), ErrValidation)
}

func TestRemoveCategoryStripsBooks(t *testing.T) {
	c, books, b1, b2 := newCategorySetup(t)
	require.NoError(t, c.AddCategory("Sci-Fi"))
	require.NoError(t, c.AddCategory("Drama"))
	require.NoError(t, c.AssignCategory(b1, "Sci-Fi"))
	require.NoError(t, c.AssignCategory(b1, "Drama"))
	require.NoError(t, c.AssignCategory(b2, "Sci-Fi"))

	require.NoError(t, c.RemoveCategory("Sci-Fi"))
	assert.NotContains(t, c.Categories(), "Sci-Fi")

	book1, _ := books.Get(b1)
	book2, _ := books.Get(b2)
	assert.Equal(t, []string{"Drama"}, book1.Categories)
	assert.Empty(t, book2.Categories)

	assert.ErrorIs(t, c.RemoveCategory("Horror"), ErrValidation)
}

func TestAssignCategory(t *testing.T) {
	c, books, b1, _ := newCategorySetup(t)
	require.NoError(t, c.AddCategory("History"))

	require.NoError(t, c.AssignCategory(b1, "History"))
	b, _ := books.Get(b1)
	assert.Equal(t, []string{"History"}, b.Categories)

	assert.ErrorIs(t, c.AssignCategory(b1, "Unknown"), ErrValidation)
	assert.ErrorIs(t, c.AssignCategory(999, "History"), ErrNotFound)
}

func TestAssignCategoryIsIdempotent(t *testing.T) {
	c, books, b1, _ := newCategorySetup(t)
	require.NoError(t, c.AddCategory("Tech"))

	require.NoError(t, c.AssignCategory(b1, "Tech"))
	before, _ := books.Get(b1)
	require.NoError(t, c.AssignCategory(b1, "Tech"))
	after, _ := books.Get(b1)

	assert.Equal(t, before.Categories, after.Categories)
	ids, err := c.BooksByCategory("Tech")
	require.NoError(t, err)
	assert.Equal(t, []int64{b1}, ids)
}

func TestRemoveCategoryFromBook(t *testing.T) {
	c, books, b1, b2 := newCategorySetup(t)
	require.NoError(t, c.AddCategory("Drama"))
	require.NoError(t, c.AddCategory("Poetry"))
	require.NoError(t, c.AssignCategory(b1, "Drama"))
	require.NoError(t, c.AssignCategory(b2, "Drama"))

	require.NoError(t, c.RemoveCategoryFromBook(b1, "Drama"))
	b, _ := books.Get(b1)
	assert.Empty(t, b.Categories)
	ids, _ := c.BooksByCategory("Drama")
	assert.Equal(t, []int64{b2}, ids)

	require.NoError(t, c.RemoveCategoryFromBook(b2, "Poetry"), "not an error when the book lacks the category")
	b, _ = books.Get(b2)
	assert.Equal(t, []string{"Drama"}, b.Categories)

	assert.ErrorIs(t, c.RemoveCategoryFromBook(999, "Drama"), ErrNotFound)
}

func TestBooksByCategory(t *testing.T) {
	c, books, b1, b2 := newCategorySetup(t)
	b3, _ := books.Add("Book Three", "Author", "3", 0)
	require.NoError(t, c.AddCategory("Adventure"))
	require.NoError(t, c.AddCategory("Thriller"))
	require.NoError(t, c.AssignCategory(b2, "Adventure"))
	require.NoError(t, c.AssignCategory(b1, "Adventure"))
	require.NoError(t, c.AssignCategory(b3, "Thriller"))

	ids, err := c.BooksByCategory("Adventure")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{b1, b2}, ids)

	require.NoError(t, books.Remove(b1))
	ids, err = c.BooksByCategory("Adventure")
	require.NoError(t, err)
	assert.Equal(t, []int64{b2}, ids)

	_, err = c.BooksByCategory("Nonexistent Category")
	assert.ErrorIs(t, err, ErrValidation)
}
