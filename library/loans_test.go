package library

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoanSetup(t *testing.T, clock *fakeClock) (*LoanTracker, *BookRegistry, int64, int64) {
	t.Helper()
	books := NewBookRegistry()
	users := NewUserRegistry()
	bookID, err := books.Add("The Lord of the Rings", "J.R.R. Tolkien", "9788328705141", 1954)
	require.NoError(t, err)
	userID, err := users.Add("Jan Kowalski", "jan@example.com")
	require.NoError(t, err)
	return NewLoanTracker(books, users, WithLoanClock(clock.Now)), books, userID, bookID
}

func TestLoanBook(t *testing.T) {
	clock := newFakeClock()
	lt, books, userID, bookID := newLoanSetup(t, clock)

	loanID, err := lt.LoanBook(userID, bookID)
	require.NoError(t, err)

	b, _ := books.Get(bookID)
	assert.False(t, b.Available)

	loan, err := lt.GetLoan(loanID)
	require.NoError(t, err)
	assert.Equal(t, userID, loan.UserID)
	assert.Equal(t, bookID, loan.BookID)
	assert.Equal(t, clock.Now(), loan.LoanDate)
	assert.False(t, loan.Returned)
	assert.Nil(t, loan.ReturnDate)

	_, err = lt.LoanBook(userID, bookID)
	assert.ErrorIs(t, err, ErrState, "one active loan per book")
}

func TestLoanBookMissingReferences(t *testing.T) {
	lt, _, userID, bookID := newLoanSetup(t, newFakeClock())

	_, err := lt.LoanBook(999, bookID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = lt.LoanBook(userID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, lt.List())
}

func TestReturnBook(t *testing.T) {
	clock := newFakeClock()
	lt, books, userID, bookID := newLoanSetup(t, clock)
	loanID, _ := lt.LoanBook(userID, bookID)

	clock.Advance(48 * time.Hour)
	require.NoError(t, lt.ReturnBook(loanID))

	b, _ := books.Get(bookID)
	assert.True(t, b.Available)
	loan, _ := lt.GetLoan(loanID)
	assert.True(t, loan.Returned)
	require.NotNil(t, loan.ReturnDate)
	assert.Equal(t, clock.Now(), *loan.ReturnDate)

	assert.ErrorIs(t, lt.ReturnBook(loanID), ErrState)
	assert.ErrorIs(t, lt.ReturnBook(999), ErrNotFound)
	_, err := lt.GetLoan(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReturnHooks(t *testing.T) {
	lt, _, userID, bookID := newLoanSetup(t, newFakeClock())
	var seen []Loan
	lt.OnReturn(func(l Loan) { seen = append(seen, l) })

	loanID, _ := lt.LoanBook(userID, bookID)
	require.NoError(t, lt.ReturnBook(loanID))
	require.Len(t, seen, 1)
	assert.Equal(t, loanID, seen[0].ID)
	assert.True(t, seen[0].Returned)

	assert.Error(t, lt.ReturnBook(loanID))
	assert.Len(t, seen, 1, "failed returns do not fire hooks")
}

func TestReturnBookOfRemovedBook(t *testing.T) {
	var logs bytes.Buffer
	books := NewBookRegistry()
	users := NewUserRegistry()
	bookID, _ := books.Add("Dune", "Frank Herbert", "9780441013593", 1965)
	userID, _ := users.Add("Jan Kowalski", "jan@example.com")
	lt := NewLoanTracker(books, users, WithLoanLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	var seen []Loan
	lt.OnReturn(func(l Loan) { seen = append(seen, l) })

	loanID, err := lt.LoanBook(userID, bookID)
	require.NoError(t, err)
	require.NoError(t, books.Remove(bookID))

	require.NoError(t, lt.ReturnBook(loanID))
	loan, _ := lt.GetLoan(loanID)
	assert.True(t, loan.Returned, "the loan is closed even without its book")
	assert.Empty(t, seen)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "book_id=1")
}

func TestAvailabilityMatchesActiveLoans(t *testing.T) {
	books := NewBookRegistry()
	users := NewUserRegistry()
	lt := NewLoanTracker(books, users)
	u1, _ := users.Add("Alice", "alice@example.com")
	u2, _ := users.Add("Bob", "bob@example.com")
	var ids []int64
	for _, title := range []string{"A", "B", "C"} {
		id, _ := books.Add(title, "Author", "isbn", 0)
		ids = append(ids, id)
	}

	l1, _ := lt.LoanBook(u1, ids[0])
	l2, _ := lt.LoanBook(u2, ids[1])
	require.NoError(t, lt.ReturnBook(l1))
	_, _ = lt.LoanBook(u2, ids[0])
	require.NoError(t, lt.ReturnBook(l2))

	for _, b := range books.List() {
		_, err := lt.ActiveLoan(b.ID)
		assert.Equal(t, err != nil, b.Available, "book %d", b.ID)
	}
	assert.Len(t, lt.UserLoans(u2), 2)
}
