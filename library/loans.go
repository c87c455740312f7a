package library

import (
	"fmt"
	"time"
)

// UserLookup is the part of the user registry other components depend on.
type UserLookup interface {
	Get(id int64) (*User, error)
}

// ReturnHook is invoked after a loan has been returned and its book made
// available again.
type ReturnHook func(loan Loan)

// LoanTracker records loans and keeps book availability in step with them:
// a book is available exactly when no unreturned loan references it.
type LoanTracker struct {
	books *BookRegistry
	users UserLookup
	loans *table[Loan]
	hooks  []ReturnHook
	now    func() time.Time
	logger Logger
}

// LoanOption configures a LoanTracker.
type LoanOption func(*LoanTracker)

// WithLoanClock replaces time.Now as the source of loan and return dates.
func WithLoanClock(now func() time.Time) LoanOption {
	return func(t *LoanTracker) { t.now = now }
}

// WithLoanLogger sets the logger for loan anomalies.
func WithLoanLogger(l Logger) LoanOption {
	return func(t *LoanTracker) { t.logger = l }
}

// NewLoanTracker returns a tracker that lends books from books to users.
func NewLoanTracker(books *BookRegistry, users UserLookup, opts ...LoanOption) *LoanTracker {
	t := &LoanTracker{books: books, users: users, loans: newTable[Loan](), now: time.Now, logger: discardLogger()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnReturn registers a hook to run after every successful ReturnBook.
func (t *LoanTracker) OnReturn(hook ReturnHook) {
	t.hooks = append(t.hooks, hook)
}

// LoanBook lends an available book to a user and returns the loan id.
func (t *LoanTracker) LoanBook(userID, bookID int64) (int64, error) {
	if _, err := t.users.Get(userID); err != nil {
		return 0, err
	}
	book, err := t.books.record(bookID)
	if err != nil {
		return 0, err
	}
	if !book.Available {
		return 0, fmt.Errorf("%w: book %d is not available", ErrState, bookID)
	}

	now := t.now()
	id := t.loans.insert(func(id int64) *Loan {
		return &Loan{ID: id, UserID: userID, BookID: bookID, LoanDate: now}
	})
	book.Available = false
	return id, nil
}

// ReturnBook closes the loan, makes its book available and runs the
// registered return hooks.
func (t *LoanTracker) ReturnBook(loanID int64) error {
	loan, ok := t.loans.get(loanID)
	if !ok {
		return fmt.Errorf("%w: loan %d does not exist", ErrNotFound, loanID)
	}
	if loan.Returned {
		return fmt.Errorf("%w: loan %d has already been returned", ErrState, loanID)
	}

	now := t.now()
	loan.Returned = true
	loan.ReturnDate = &now
	if err := t.books.setAvailable(loan.BookID, true); err != nil {
		// The book was removed while on loan; the loan is closed regardless.
		t.logger.Warn("returned book no longer in catalogue, skipping return hooks",
			"loan_id", loanID, "book_id", loan.BookID, "error", err)
		return nil
	}

	for _, hook := range t.hooks {
		hook(*loan)
	}
	return nil
}

// GetLoan returns a copy of the loan with the given id.
func (t *LoanTracker) GetLoan(id int64) (*Loan, error) {
	loan, ok := t.loans.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: loan %d does not exist", ErrNotFound, id)
	}
	c := *loan
	return &c, nil
}

// ActiveLoan returns the unreturned loan for a book.
func (t *LoanTracker) ActiveLoan(bookID int64) (*Loan, error) {
	var active *Loan
	t.loans.each(func(l *Loan) bool {
		if l.BookID == bookID && !l.Returned {
			c := *l
			active = &c
			return false
		}
		return true
	})
	if active == nil {
		return nil, fmt.Errorf("%w: book %d has no active loan", ErrNotFound, bookID)
	}
	return active, nil
}

// UserLoans returns every loan of a user, returned or not, in creation order.
func (t *LoanTracker) UserLoans(userID int64) []Loan {
	loans := []Loan{}
	t.loans.each(func(l *Loan) bool {
		if l.UserID == userID {
			loans = append(loans, *l)
		}
		return true
	})
	return loans
}

// List returns every loan in creation order.
func (t *LoanTracker) List() []Loan {
	loans := make([]Loan, 0, t.loans.len())
	t.loans.each(func(l *Loan) bool {
		loans = append(loans, *l)
		return true
	})
	return loans
}
