package library

import (
	"slices"
	"time"
)

// Book represents catalogue metadata and current availability of a book.
// Year is zero when unknown.
type Book struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	ISBN       string   `json:"isbn"`
	Year       int      `json:"year,omitempty"`
	Available  bool     `json:"available"`
	Categories []string `json:"categories"`
}

// HasCategory reports whether the book is tagged with name.
func (b *Book) HasCategory(name string) bool {
	return slices.Contains(b.Categories, name)
}

func (b *Book) clone() *Book {
	c := *b
	c.Categories = slices.Clone(b.Categories)
	if c.Categories == nil {
		c.Categories = []string{}
	}
	return &c
}

// User represents a registered library user.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Loan links a user to a book they borrowed. Loans are never deleted;
// returning one flips Returned and stamps ReturnDate.
type Loan struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	LoanDate   time.Time  `json:"loan_date"`
	Returned   bool       `json:"returned"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusWaiting   ReservationStatus = "waiting"
	StatusReady     ReservationStatus = "ready"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusExpired   ReservationStatus = "expired"
)

// Terminal reports whether no further transition is possible from s.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusReady, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Reservation is a user's place in a book's queue. ExpiryDate is set only
// once the reservation is promoted to ready.
type Reservation struct {
	ID               int64             `json:"id"`
	UserID           int64             `json:"user_id"`
	BookID           int64             `json:"book_id"`
	RequestDate      time.Time         `json:"request_date"`
	Status           ReservationStatus `json:"status"`
	ExpiryDate       *time.Time        `json:"expiry_date,omitempty"`
	NotificationSent bool              `json:"notification_sent"`
}

// LibraryData represents the complete library state for persistence.
type LibraryData struct {
	Books             []*Book        `json:"books"`
	Users             []*User        `json:"users"`
	Categories        []string       `json:"categories"`
	Loans             []*Loan        `json:"loans"`
	Reservations      []*Reservation `json:"reservations"`
	NextBookID        int64          `json:"next_book_id"`
	NextUserID        int64          `json:"next_user_id"`
	NextLoanID        int64          `json:"next_loan_id"`
	NextReservationID int64          `json:"next_reservation_id"`
}
