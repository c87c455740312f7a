package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newManager(t *testing.T, clock *fakeClock) *LibraryManager {
	t.Helper()
	mgr, err := NewLibraryManager(ManagerConfig{Clock: clock.Now})
	require.NoError(t, err)
	return mgr
}

// stubBooks and stubUsers stand in for the registries so queue tests can
// pick availability directly.
type stubBooks map[int64]*Book

func (s stubBooks) Get(id int64) (*Book, error) {
	b, ok := s[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *b
	return &c, nil
}

type stubUsers map[int64]*User

func (s stubUsers) Get(id int64) (*User, error) {
	u, ok := s[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	return &c, nil
}
