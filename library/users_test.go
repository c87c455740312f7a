package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUser(t *testing.T) {
	r := NewUserRegistry()

	id, err := r.Add("Jan Kowalski", "jan@example.com")
	require.NoError(t, err)

	u, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Jan Kowalski", u.Name)
	assert.Equal(t, "jan@example.com", u.Email)

	_, err = r.Get(id + 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddUserValidation(t *testing.T) {
	r := NewUserRegistry()

	_, err := r.Add("", "test@example.com")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "name")

	_, err = r.Add("Test User", "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "email")

	for _, bad := range []string{"info@", "@wp.pl", "no-at-sign", "a@b@c", "a b@c.pl"} {
		_, err = r.Add("Test User", bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
	assert.Empty(t, r.List())
}

func TestFindByEmail(t *testing.T) {
	r := NewUserRegistry()
	id, _ := r.Add("Anna Nowak", "anna@example.com")

	u, err := r.FindByEmail("ANNA@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = r.FindByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("info@wp.pl"))
	assert.True(t, ValidateEmail("prawidlowy@example.com"))
	assert.False(t, ValidateEmail("info@"))
	assert.False(t, ValidateEmail(""))
}

func TestValidateISBN(t *testing.T) {
	assert.True(t, ValidateISBN("1234567890123"))
	assert.True(t, ValidateISBN("978-83-287-0514-1"))
	assert.True(t, ValidateISBN("0-306-40615-2"))
	assert.True(t, ValidateISBN("080442957X"))
	assert.False(t, ValidateISBN("111222333"))
	assert.False(t, ValidateISBN("12345678901X3"))
	assert.False(t, ValidateISBN(""))
}
