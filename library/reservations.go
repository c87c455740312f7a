package library

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultExpiryDays is how long a ready reservation is held before the
// expiry sweep may release it.
const DefaultExpiryDays = 3

// MaxExpiryDays caps the hold period at ten years.
const MaxExpiryDays = 3650

// BookLookup is the part of the book registry the reservation queue depends on.
type BookLookup interface {
	Get(id int64) (*Book, error)
}

// ReservationQueue keeps a FIFO queue of reservations per book and owns every
// reservation status transition:
//
//	waiting -> ready      BookReturned promotes the head of the queue
//	ready   -> completed  CompleteReservation
//	ready   -> expired    CheckExpiredReservations, once past ExpiryDate
//	waiting -> cancelled  CancelReservation
//	ready   -> cancelled  CancelReservation
//
// completed, cancelled and expired are terminal.
type ReservationQueue struct {
	books        BookLookup
	users        UserLookup
	reservations *table[Reservation]
	expiryDays   int
	notifier     Notifier
	logger       Logger
	now          func() time.Time
}

// Option configures a ReservationQueue.
type Option func(*ReservationQueue) error

// WithExpiryDays sets how many days a ready reservation is held.
func WithExpiryDays(days int) Option {
	return func(q *ReservationQueue) error {
		if days <= 0 || days > MaxExpiryDays {
			return fmt.Errorf("%w: reservation expiry must be between 1 and %d days, got %d", ErrValidation, MaxExpiryDays, days)
		}
		q.expiryDays = days
		return nil
	}
}

// WithClock replaces time.Now as the source of request and expiry dates.
func WithClock(now func() time.Time) Option {
	return func(q *ReservationQueue) error {
		q.now = now
		return nil
	}
}

// WithNotifier sets the hook fired when a reservation becomes ready.
func WithNotifier(n Notifier) Option {
	return func(q *ReservationQueue) error {
		q.notifier = n
		return nil
	}
}

// WithLogger sets the logger for queue transitions.
func WithLogger(l Logger) Option {
	return func(q *ReservationQueue) error {
		q.logger = l
		return nil
	}
}

// NewReservationQueue returns an empty queue that checks books and users
// against the given lookups.
func NewReservationQueue(books BookLookup, users UserLookup, opts ...Option) (*ReservationQueue, error) {
	q := &ReservationQueue{
		books:        books,
		users:        users,
		reservations: newTable[Reservation](),
		expiryDays:   DefaultExpiryDays,
		logger:       discardLogger(),
		now:          time.Now,
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	if q.notifier == nil {
		q.notifier = LogNotifier{Logger: q.logger}
	}
	return q, nil
}

// ExpiryDays reports how many days a ready reservation is held.
func (q *ReservationQueue) ExpiryDays() int {
	return q.expiryDays
}

// ReserveBook puts the user at the back of the book's queue. Books that are
// available cannot be reserved; they should be loaned directly.
func (q *ReservationQueue) ReserveBook(userID, bookID int64) (int64, error) {
	if _, err := q.users.Get(userID); err != nil {
		return 0, err
	}
	book, err := q.books.Get(bookID)
	if err != nil {
		return 0, err
	}
	if book.Available {
		return 0, fmt.Errorf("%w: book %d is already available", ErrState, bookID)
	}

	duplicate := false
	q.reservations.each(func(r *Reservation) bool {
		if r.UserID == userID && r.BookID == bookID && !r.Status.Terminal() {
			duplicate = true
			return false
		}
		return true
	})
	if duplicate {
		return 0, fmt.Errorf("%w: user %d has already reserved book %d", ErrValidation, userID, bookID)
	}

	now := q.now()
	id := q.reservations.insert(func(id int64) *Reservation {
		return &Reservation{
			ID:          id,
			UserID:      userID,
			BookID:      bookID,
			RequestDate: now,
			Status:      StatusWaiting,
		}
	})
	q.logger.Debug("reservation created", "reservation_id", id, "user_id", userID, "book_id", bookID)
	return id, nil
}

func (q *ReservationQueue) record(id int64) (*Reservation, error) {
	r, ok := q.reservations.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: reservation %d does not exist", ErrNotFound, id)
	}
	return r, nil
}

// GetReservation returns a copy of the reservation with the given id.
func (q *ReservationQueue) GetReservation(id int64) (*Reservation, error) {
	r, err := q.record(id)
	if err != nil {
		return nil, err
	}
	c := *r
	return &c, nil
}

// CancelReservation cancels a waiting or ready reservation. The next waiting
// reservation is not promoted; that only happens through BookReturned.
func (q *ReservationQueue) CancelReservation(id int64) error {
	r, err := q.record(id)
	if err != nil {
		return err
	}
	if r.Status.Terminal() {
		return fmt.Errorf("%w: cannot cancel reservation %d with status %s", ErrState, id, r.Status)
	}
	r.Status = StatusCancelled
	q.logger.Debug("reservation cancelled", "reservation_id", id)
	return nil
}

// BookReturned promotes the oldest waiting reservation for the book to ready,
// starts its expiry window and fires the notifier. It reports false when
// nobody is waiting.
func (q *ReservationQueue) BookReturned(bookID int64) (int64, bool) {
	waiting := q.waiting(bookID)
	if len(waiting) == 0 {
		return 0, false
	}

	head := waiting[0]
	now := q.now()
	expires := now.AddDate(0, 0, q.expiryDays)
	head.Status = StatusReady
	head.ExpiryDate = &expires
	head.NotificationSent = true

	q.logger.Info("reservation promoted", "reservation_id", head.ID, "book_id", bookID, "user_id", head.UserID)
	q.notifier.ReservationReady(Notification{
		ID:            uuid.New(),
		ReservationID: head.ID,
		UserID:        head.UserID,
		BookID:        bookID,
		ExpiresAt:     expires,
		CreatedAt:     now,
	})
	return head.ID, true
}

// CompleteReservation marks a ready reservation as fulfilled. Lending the book
// is left to the caller.
func (q *ReservationQueue) CompleteReservation(id int64) error {
	r, err := q.record(id)
	if err != nil {
		return err
	}
	if r.Status != StatusReady {
		return fmt.Errorf("%w: only ready reservations can be completed, reservation %d is %s", ErrState, id, r.Status)
	}
	r.Status = StatusCompleted
	q.logger.Debug("reservation completed", "reservation_id", id)
	return nil
}

// CheckExpiredReservations expires every ready reservation whose expiry date
// has passed and returns their ids in creation order. Expiry does not promote
// the next waiting reservation.
func (q *ReservationQueue) CheckExpiredReservations() []int64 {
	now := q.now()
	expired := []int64{}
	q.reservations.each(func(r *Reservation) bool {
		if r.Status == StatusReady && r.ExpiryDate != nil && now.After(*r.ExpiryDate) {
			r.Status = StatusExpired
			expired = append(expired, r.ID)
		}
		return true
	})
	if len(expired) > 0 {
		q.logger.Info("reservations expired", "count", len(expired), "reservation_ids", expired)
	}
	return expired
}

// PositionInQueue returns the 1-based rank of a waiting reservation among the
// waiting reservations for the same book.
func (q *ReservationQueue) PositionInQueue(id int64) (int, error) {
	r, err := q.record(id)
	if err != nil {
		return 0, err
	}
	if r.Status != StatusWaiting {
		return 0, fmt.Errorf("%w: reservation %d is not waiting", ErrNotFound, id)
	}
	for i, w := range q.waiting(r.BookID) {
		if w.ID == id {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: reservation %d is not waiting", ErrNotFound, id)
}

// Queue returns the waiting reservations for a book, head first.
func (q *ReservationQueue) Queue(bookID int64) []Reservation {
	waiting := q.waiting(bookID)
	out := make([]Reservation, len(waiting))
	for i, r := range waiting {
		out[i] = *r
	}
	return out
}

// UserReservations returns every reservation of the user, whatever its
// status, in creation order.
func (q *ReservationQueue) UserReservations(userID int64) []Reservation {
	out := []Reservation{}
	q.reservations.each(func(r *Reservation) bool {
		if r.UserID == userID {
			out = append(out, *r)
		}
		return true
	})
	return out
}

// List returns every reservation in creation order.
func (q *ReservationQueue) List() []Reservation {
	out := make([]Reservation, 0, q.reservations.len())
	q.reservations.each(func(r *Reservation) bool {
		out = append(out, *r)
		return true
	})
	return out
}

// waiting returns the stored waiting reservations for a book ordered by
// request date, ties kept in creation order.
func (q *ReservationQueue) waiting(bookID int64) []*Reservation {
	var waiting []*Reservation
	q.reservations.each(func(r *Reservation) bool {
		if r.BookID == bookID && r.Status == StatusWaiting {
			waiting = append(waiting, r)
		}
		return true
	})
	slices.SortStableFunc(waiting, func(a, b *Reservation) int {
		return a.RequestDate.Compare(b.RequestDate)
	})
	return waiting
}
