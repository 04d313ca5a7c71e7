package domain

import (
	"strings"
	"time"
	"unicode"
)

// Contact is an address-book record owned by exactly one user.
// The owner never changes for the lifetime of the record.
type Contact struct {
	ID        int64
	OwnerID   int64
	Name      string
	Phone     string
	Email     string
	Company   string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactFields carries the mutable fields of a contact for add/update.
type ContactFields struct {
	Name    string
	Phone   string
	Email   string
	Company string
	Notes   string
}

// ValidNumber reports whether a phone number is E.164-like:
// a leading '+' followed by 7 to 15 digits and nothing else.
func ValidNumber(number string) bool {
	digits, ok := strings.CutPrefix(number, "+")
	if !ok || len(digits) < 7 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
