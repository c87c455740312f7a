package library

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Logger is the logging surface used by the library. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func discardLogger() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Notification tells a user that the book they reserved is waiting for them.
type Notification struct {
	ID            uuid.UUID
	ReservationID int64
	UserID        int64
	BookID        int64
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Notifier is fired when a reservation is promoted to ready.
type Notifier interface {
	ReservationReady(n Notification)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) ReservationReady(n Notification) { f(n) }

// LogNotifier writes notifications to a logger instead of delivering them.
type LogNotifier struct {
	Logger Logger
}

func (l LogNotifier) ReservationReady(n Notification) {
	if l.Logger == nil {
		return
	}
	l.Logger.Info("reservation ready",
		"notification_id", n.ID.String(),
		"reservation_id", n.ReservationID,
		"user_id", n.UserID,
		"book_id", n.BookID,
		"expires_at", n.ExpiresAt.Format(time.RFC3339),
	)
}
