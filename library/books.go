package library

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// BookRegistry stores book records keyed by sequential id.
type BookRegistry struct {
	books *table[Book]
}

// NewBookRegistry returns an empty registry.
func NewBookRegistry() *BookRegistry {
	return &BookRegistry{books: newTable[Book]()}
}

// BookUpdate carries the fields Update should change. Empty strings and a
// zero Year leave the stored value as it is.
type BookUpdate struct {
	Title  string
	Author string
	ISBN   string
	Year   int
}

func validateTitle(title string) error {
	if blank(title) {
		return fmt.Errorf("%w: title must be a non-empty string", ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title is longer than %d characters", ErrValidation, MaxTitleLength)
	}
	return nil
}

// Add registers a new, available book and returns its id.
func (r *BookRegistry) Add(title, author, isbn string, year int) (int64, error) {
	if err := validateTitle(title); err != nil {
		return 0, err
	}
	if blank(author) {
		return 0, fmt.Errorf("%w: author must be a non-empty string", ErrValidation)
	}
	if blank(isbn) {
		return 0, fmt.Errorf("%w: isbn must be a non-empty string", ErrValidation)
	}

	id := r.books.insert(func(id int64) *Book {
		return &Book{
			ID:         id,
			Title:      title,
			Author:     author,
			ISBN:       isbn,
			Year:       year,
			Available:  true,
			Categories: []string{},
		}
	})
	return id, nil
}

// Get returns a copy of the book with the given id.
func (r *BookRegistry) Get(id int64) (*Book, error) {
	b, err := r.record(id)
	if err != nil {
		return nil, err
	}
	return b.clone(), nil
}

// record returns the stored book itself, for the components allowed to mutate it.
func (r *BookRegistry) record(id int64) (*Book, error) {
	b, ok := r.books.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: book %d does not exist", ErrNotFound, id)
	}
	return b, nil
}

// Exists reports whether a book with the given id is registered.
func (r *BookRegistry) Exists(id int64) bool {
	_, ok := r.books.get(id)
	return ok
}

// Remove deletes the book with the given id.
func (r *BookRegistry) Remove(id int64) error {
	if !r.books.delete(id) {
		return fmt.Errorf("%w: book %d does not exist", ErrNotFound, id)
	}
	return nil
}

// Update applies the non-empty fields of u to the book. All provided fields
// are validated before any of them is written.
func (r *BookRegistry) Update(id int64, u BookUpdate) error {
	b, err := r.record(id)
	if err != nil {
		return err
	}
	if u.Title != "" {
		if err := validateTitle(u.Title); err != nil {
			return err
		}
	}
	if u.Author != "" && blank(u.Author) {
		return fmt.Errorf("%w: author must be a non-empty string", ErrValidation)
	}
	if u.ISBN != "" && blank(u.ISBN) {
		return fmt.Errorf("%w: isbn must be a non-empty string", ErrValidation)
	}

	if u.Title != "" {
		b.Title = u.Title
	}
	if u.Author != "" {
		b.Author = u.Author
	}
	if u.ISBN != "" {
		b.ISBN = u.ISBN
	}
	if u.Year != 0 {
		b.Year = u.Year
	}
	return nil
}

// FindByTitle returns every book whose title contains substr, ignoring case,
// in insertion order.
func (r *BookRegistry) FindByTitle(substr string) []*Book {
	return r.find(func(b *Book) string { return b.Title }, substr)
}

// FindByAuthor returns every book whose author contains substr, ignoring case,
// in insertion order.
func (r *BookRegistry) FindByAuthor(substr string) []*Book {
	return r.find(func(b *Book) string { return b.Author }, substr)
}

func (r *BookRegistry) find(field func(*Book) string, substr string) []*Book {
	needle := strings.ToLower(substr)
	matches := []*Book{}
	r.books.each(func(b *Book) bool {
		if strings.Contains(strings.ToLower(field(b)), needle) {
			matches = append(matches, b.clone())
		}
		return true
	})
	return matches
}

// List returns every book in insertion order.
func (r *BookRegistry) List() []*Book {
	books := make([]*Book, 0, r.books.len())
	r.books.each(func(b *Book) bool {
		books = append(books, b.clone())
		return true
	})
	return books
}

// Len reports how many books are registered.
func (r *BookRegistry) Len() int { return r.books.len() }

func (r *BookRegistry) setAvailable(id int64, available bool) error {
	b, err := r.record(id)
	if err != nil {
		return err
	}
	b.Available = available
	return nil
}
