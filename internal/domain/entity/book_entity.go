package entity

import (
	"time"
)

// BookStatus is the closed set accepted by the books.status check constraint.
type BookStatus string

const (
	BookAvailable   BookStatus = "available"
	BookUnavailable BookStatus = "unavailable"
	BookRetired     BookStatus = "retired"
)

func (s BookStatus) Valid() bool {
	switch s {
	case BookAvailable, BookUnavailable, BookRetired:
		return true
	}
	return false
}

// Publication year bounds enforced by the books check constraint.
const (
	MinPublicationYear = 1450
	MaxPublicationYear = 2100
)

// Book is a catalog entry. Price is in the smallest currency unit (whole
// rupiah). Invariant: 0 <= AvailableCopies <= TotalCopies, pre-checked by the
// services and backed by the check_available_copies constraint.
type Book struct {
	ID              int64
	ISBN            string
	Title           string
	AuthorID        int64
	PublisherID     int64
	CategoryID      int64
	PublicationYear int
	Pages           int
	Language        string
	Description     string
	TotalCopies     int
	AvailableCopies int
	Price           int64
	Location        string
	Status          BookStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasAvailableCopy reports whether at least one copy can be lent out.
func (b *Book) HasAvailableCopy() bool {
	return b.AvailableCopies > 0
}
