package library

import (
	"fmt"
	"slices"
	"sort"
)

// CategoryIndex maps category names to the books tagged with them. Every
// change is mirrored onto the Categories list of the affected book records.
type CategoryIndex struct {
	books   *BookRegistry
	members map[string]map[int64]struct{}
}

// NewCategoryIndex returns an empty index over books.
func NewCategoryIndex(books *BookRegistry) *CategoryIndex {
	return &CategoryIndex{books: books, members: make(map[string]map[int64]struct{})}
}

// AddCategory creates an empty category.
func (c *CategoryIndex) AddCategory(name string) error {
	if blank(name) {
		return fmt.Errorf("%w: category name must be a non-empty string", ErrValidation)
	}
	if _, ok := c.members[name]; ok {
		return fmt.Errorf("%w: category already exists: %q", ErrValidation, name)
	}
	c.members[name] = make(map[int64]struct{})
	return nil
}

// RemoveCategory deletes the category and strips it from every book.
func (c *CategoryIndex) RemoveCategory(name string) error {
	if _, ok := c.members[name]; !ok {
		return fmt.Errorf("%w: category does not exist: %q", ErrValidation, name)
	}
	c.books.books.each(func(b *Book) bool {
		b.Categories = slices.DeleteFunc(b.Categories, func(s string) bool { return s == name })
		return true
	})
	delete(c.members, name)
	return nil
}

// AssignCategory tags the book with the category. Assigning a category the
// book already holds changes nothing.
func (c *CategoryIndex) AssignCategory(bookID int64, name string) error {
	set, ok := c.members[name]
	if !ok {
		return fmt.Errorf("%w: category does not exist: %q", ErrValidation, name)
	}
	b, err := c.books.record(bookID)
	if err != nil {
		return err
	}
	if !b.HasCategory(name) {
		b.Categories = append(b.Categories, name)
	}
	set[bookID] = struct{}{}
	return nil
}

// RemoveCategoryFromBook untags the book. It is not an error if the book
// never held the category.
func (c *CategoryIndex) RemoveCategoryFromBook(bookID int64, name string) error {
	b, err := c.books.record(bookID)
	if err != nil {
		return err
	}
	b.Categories = slices.DeleteFunc(b.Categories, func(s string) bool { return s == name })
	if set, ok := c.members[name]; ok {
		delete(set, bookID)
	}
	return nil
}

// BooksByCategory returns the ids of the books tagged with the category,
// sorted ascending. Books removed from the registry since they were tagged
// are dropped from the index here.
func (c *CategoryIndex) BooksByCategory(name string) ([]int64, error) {
	set, ok := c.members[name]
	if !ok {
		return nil, fmt.Errorf("%w: category does not exist: %q", ErrValidation, name)
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		if !c.books.Exists(id) {
			delete(set, id)
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// HasCategory reports whether the category exists.
func (c *CategoryIndex) HasCategory(name string) bool {
	_, ok := c.members[name]
	return ok
}

// Categories returns every category name, sorted.
func (c *CategoryIndex) Categories() []string {
	names := make([]string, 0, len(c.members))
	for name := range c.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rebuild recreates the index from the given names and the Categories of the
// registered books. Tags naming a category not in names create it.
func (c *CategoryIndex) rebuild(names []string) {
	c.members = make(map[string]map[int64]struct{}, len(names))
	for _, name := range names {
		c.members[name] = make(map[int64]struct{})
	}
	c.books.books.each(func(b *Book) bool {
		for _, name := range b.Categories {
			set, ok := c.members[name]
			if !ok {
				set = make(map[int64]struct{})
				c.members[name] = set
			}
			set[b.ID] = struct{}{}
		}
		return true
	})
}
