package library

import (
	"fmt"
	"strings"
)

// UserRegistry stores user records keyed by sequential id.
type UserRegistry struct {
	users *table[User]
}

// NewUserRegistry returns an empty registry.
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{users: newTable[User]()}
}

// Add registers a user after validating the name and email.
func (r *UserRegistry) Add(name, email string) (int64, error) {
	if blank(name) {
		return 0, fmt.Errorf("%w: name must be a non-empty string", ErrValidation)
	}
	if blank(email) {
		return 0, fmt.Errorf("%w: email must be a non-empty string", ErrValidation)
	}
	if !ValidateEmail(email) {
		return 0, fmt.Errorf("%w: invalid email address %q", ErrValidation, email)
	}

	id := r.users.insert(func(id int64) *User {
		return &User{ID: id, Name: name, Email: email}
	})
	return id, nil
}

// Get returns a copy of the user with the given id.
func (r *UserRegistry) Get(id int64) (*User, error) {
	u, ok := r.users.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: user %d does not exist", ErrNotFound, id)
	}
	c := *u
	return &c, nil
}

// FindByEmail returns the first user registered with email, compared case-insensitively.
func (r *UserRegistry) FindByEmail(email string) (*User, error) {
	var found *User
	r.users.each(func(u *User) bool {
		if strings.EqualFold(u.Email, email) {
			c := *u
			found = &c
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("%w: no user with email %q", ErrNotFound, email)
	}
	return found, nil
}

// List returns every user in insertion order.
func (r *UserRegistry) List() []*User {
	users := make([]*User, 0, r.users.len())
	r.users.each(func(u *User) bool {
		c := *u
		users = append(users, &c)
		return true
	})
	return users
}
