package library

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// LibraryManager owns one instance of every component and keeps them in
// step: returning a loan offers the book to its reservation queue.
type LibraryManager struct {
	Books        *BookRegistry
	Users        *UserRegistry
	Categories   *CategoryIndex
	Loans        *LoanTracker
	Reservations *ReservationQueue

	logger   Logger
	promoted map[int64]int64 // loan id -> reservation promoted by its return
}

// ManagerConfig configures a LibraryManager. Zero values select defaults.
type ManagerConfig struct {
	ExpiryDays int
	Logger     Logger
	Notifier   Notifier
	Clock      func() time.Time
}

// NewLibraryManager wires a fresh, empty library.
func NewLibraryManager(cfg ManagerConfig) (*LibraryManager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	books := NewBookRegistry()
	users := NewUserRegistry()

	opts := []Option{WithLogger(logger), WithClock(clock)}
	if cfg.ExpiryDays != 0 {
		opts = append(opts, WithExpiryDays(cfg.ExpiryDays))
	}
	if cfg.Notifier != nil {
		opts = append(opts, WithNotifier(cfg.Notifier))
	}
	reservations, err := NewReservationQueue(books, users, opts...)
	if err != nil {
		return nil, err
	}

	lm := &LibraryManager{
		Books:        books,
		Users:        users,
		Categories:   NewCategoryIndex(books),
		Loans:        NewLoanTracker(books, users, WithLoanClock(clock), WithLoanLogger(logger)),
		Reservations: reservations,
		logger:       logger,
		promoted:     make(map[int64]int64),
	}
	lm.Loans.OnReturn(lm.offerToQueue)
	return lm, nil
}

func (lm *LibraryManager) offerToQueue(loan Loan) {
	if id, ok := lm.Reservations.BookReturned(loan.BookID); ok {
		lm.promoted[loan.ID] = id
	}
}

// ------------------ Book helpers ------------------

func (lm *LibraryManager) AddBook(title, author, isbn string, year int) (int64, error) {
	id, err := lm.Books.Add(title, author, isbn, year)
	if err != nil {
		return 0, err
	}
	lm.logger.Debug("book added", "book_id", id, "title", title)
	return id, nil
}

// RemoveBook deletes a book that is not on loan and cancels its open reservations.
func (lm *LibraryManager) RemoveBook(id int64) error {
	if _, err := lm.Books.Get(id); err != nil {
		return err
	}
	if _, err := lm.Loans.ActiveLoan(id); err == nil {
		return fmt.Errorf("%w: book %d is on loan", ErrState, id)
	}
	for _, r := range lm.Reservations.List() {
		if r.BookID == id && !r.Status.Terminal() {
			if err := lm.Reservations.CancelReservation(r.ID); err != nil {
				return err
			}
		}
	}
	if err := lm.Books.Remove(id); err != nil {
		return err
	}
	lm.logger.Debug("book removed", "book_id", id)
	return nil
}

// ------------------ User helpers ------------------

// AddUser registers a user, refusing an email address already on file.
func (lm *LibraryManager) AddUser(name, email string) (int64, error) {
	if _, err := lm.Users.FindByEmail(email); err == nil {
		return 0, fmt.Errorf("%w: email %q is already registered", ErrValidation, email)
	}
	id, err := lm.Users.Add(name, email)
	if err != nil {
		return 0, err
	}
	lm.logger.Debug("user added", "user_id", id)
	return id, nil
}

// ------------------ Circulation ------------------

// ReturnResult describes what happened when a loan was returned.
type ReturnResult struct {
	Loan                  Loan
	Promoted              bool
	PromotedReservationID int64
}

// ReturnBook closes the loan and promotes the next waiting reservation for
// the book, if any.
func (lm *LibraryManager) ReturnBook(loanID int64) (ReturnResult, error) {
	if err := lm.Loans.ReturnBook(loanID); err != nil {
		return ReturnResult{}, err
	}
	loan, err := lm.Loans.GetLoan(loanID)
	if err != nil {
		return ReturnResult{}, err
	}
	res := ReturnResult{Loan: *loan}
	if id, ok := lm.promoted[loanID]; ok {
		delete(lm.promoted, loanID)
		res.Promoted = true
		res.PromotedReservationID = id
	}
	lm.logger.Debug("book returned", "loan_id", loanID, "book_id", loan.BookID, "promoted", res.Promoted)
	return res, nil
}

// BorrowReserved lends the book of a ready reservation to its holder and
// completes the reservation.
func (lm *LibraryManager) BorrowReserved(reservationID int64) (int64, error) {
	r, err := lm.Reservations.GetReservation(reservationID)
	if err != nil {
		return 0, err
	}
	if r.Status != StatusReady {
		return 0, fmt.Errorf("%w: reservation %d is %s, not ready", ErrState, reservationID, r.Status)
	}
	loanID, err := lm.Loans.LoanBook(r.UserID, r.BookID)
	if err != nil {
		return 0, err
	}
	if err := lm.Reservations.CompleteReservation(reservationID); err != nil {
		return 0, err
	}
	return loanID, nil
}

// ExpireReservations runs the expiry sweep.
func (lm *LibraryManager) ExpireReservations() []int64 {
	return lm.Reservations.CheckExpiredReservations()
}

// ------------------ Persistence ------------------

// Snapshot returns the complete library state.
func (lm *LibraryManager) Snapshot() *LibraryData {
	data := &LibraryData{
		Books:             lm.Books.List(),
		Users:             lm.Users.List(),
		Categories:        lm.Categories.Categories(),
		NextBookID:        lm.Books.books.next(),
		NextUserID:        lm.Users.users.next(),
		NextLoanID:        lm.Loans.loans.next(),
		NextReservationID: lm.Reservations.reservations.next(),
	}
	for _, l := range lm.Loans.List() {
		data.Loans = append(data.Loans, &l)
	}
	for _, r := range lm.Reservations.List() {
		data.Reservations = append(data.Reservations, &r)
	}
	return data
}

// Restore replaces the library state with data. The current state is kept
// if data is inconsistent.
func (lm *LibraryManager) Restore(data *LibraryData) error {
	if err := checkSnapshot(data); err != nil {
		return err
	}

	books := newTable[Book]()
	for _, b := range data.Books {
		books.restore(b.ID, b.clone())
	}
	books.advance(data.NextBookID)

	users := newTable[User]()
	for _, u := range data.Users {
		c := *u
		users.restore(u.ID, &c)
	}
	users.advance(data.NextUserID)

	loans := newTable[Loan]()
	for _, l := range data.Loans {
		c := *l
		loans.restore(l.ID, &c)
	}
	loans.advance(data.NextLoanID)

	reservations := newTable[Reservation]()
	for _, r := range data.Reservations {
		c := *r
		reservations.restore(r.ID, &c)
	}
	reservations.advance(data.NextReservationID)

	lm.Books.books = books
	lm.Users.users = users
	lm.Loans.loans = loans
	lm.Reservations.reservations = reservations
	lm.Categories.rebuild(data.Categories)
	clear(lm.promoted)
	return nil
}

func checkSnapshot(data *LibraryData) error {
	if data == nil {
		return errors.New("nil library data")
	}
	active := make(map[int64]int64)
	for _, l := range data.Loans {
		if l.Returned {
			continue
		}
		if other, ok := active[l.BookID]; ok {
			return fmt.Errorf("%w: book %d has two active loans (%d and %d)", ErrValidation, l.BookID, other, l.ID)
		}
		active[l.BookID] = l.ID
	}
	for _, b := range data.Books {
		if _, onLoan := active[b.ID]; onLoan == b.Available {
			return fmt.Errorf("%w: book %d availability disagrees with its loans", ErrValidation, b.ID)
		}
	}
	for _, r := range data.Reservations {
		if !r.Status.Valid() {
			return fmt.Errorf("%w: reservation %d has unknown status %q", ErrValidation, r.ID, r.Status)
		}
	}
	return nil
}

// Load restores the library state from p. Restoring from a store that was
// never written leaves the library empty.
func (lm *LibraryManager) Load(p Persister) error {
	data, err := p.Load()
	if err != nil {
		return err
	}
	return lm.Restore(data)
}

// Save writes the library state to p.
func (lm *LibraryManager) Save(p Persister) error {
	return p.Save(lm.Snapshot())
}

// ------------------ Reporting ------------------

// BookStatus summarises a book and its circulation state.
type BookStatus struct {
	Book     *Book
	Borrower *User
	Queue    []Reservation
}

// Status returns the circulation state of every book, ordered by id.
func (lm *LibraryManager) Status() []BookStatus {
	books := lm.Books.List()
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })

	out := make([]BookStatus, 0, len(books))
	for _, b := range books {
		st := BookStatus{Book: b, Queue: lm.Reservations.Queue(b.ID)}
		if loan, err := lm.Loans.ActiveLoan(b.ID); err == nil {
			st.Borrower, _ = lm.Users.Get(loan.UserID)
		}
		out = append(out, st)
	}
	return out
}
