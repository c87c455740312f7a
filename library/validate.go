package library

import (
	"strings"
	"unicode"
)

// MaxTitleLength is the longest title, in characters, a book may carry.
const MaxTitleLength = 200

// ValidateEmail reports whether email has a non-empty local part and a
// non-empty domain separated by a single "@", and contains no whitespace.
func ValidateEmail(email string) bool {
	if email == "" || strings.IndexFunc(email, unicode.IsSpace) >= 0 {
		return false
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	return !strings.Contains(domain, "@")
}

// ValidateISBN reports whether isbn is a plausible ISBN-10 or ISBN-13:
// ten or thirteen digits once hyphens and spaces are removed, where an
// ISBN-10 may end in X. Check digits are not verified.
func ValidateISBN(isbn string) bool {
	digits := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, isbn)

	switch len(digits) {
	case 10:
		for i, r := range digits {
			if r >= '0' && r <= '9' {
				continue
			}
			if i == 9 && (r == 'X' || r == 'x') {
				continue
			}
			return false
		}
		return true
	case 13:
		for _, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	return false
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
