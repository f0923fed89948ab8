package entity

import (
	"time"
)

// BorrowingStatus is the closed set accepted by the borrowings.status check
// constraint. Overdue standing is derived from DueDate at read time; rows are
// not flipped to "overdue" by a background job.
type BorrowingStatus string

const (
	StatusBorrowed BorrowingStatus = "borrowed"
	StatusReturned BorrowingStatus = "returned"
	StatusOverdue  BorrowingStatus = "overdue"
)

func (s BorrowingStatus) Valid() bool {
	switch s {
	case StatusBorrowed, StatusReturned, StatusOverdue:
		return true
	}
	return false
}

// Borrowing is a single loan of one book copy to one user. The lending service
// owns its lifecycle end-to-end: created by a borrow, mutated once by a
// return, deleted only by administrative cleanup.
//
// Invariant backed by chk_due_after_borrow: DueDate > BorrowDate.
type Borrowing struct {
	ID         int64
	UserID     int64
	BookID     int64
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     BorrowingStatus
	FineAmount int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Active reports whether the loan is still out.
func (b *Borrowing) Active() bool {
	return b.Status == StatusBorrowed
}

// IsOverdue reports whether the loan has passed its due date without a
// recorded return, evaluated against the given clock.
func (b *Borrowing) IsOverdue(now time.Time) bool {
	if b.Status != StatusBorrowed {
		return false
	}
	return now.After(b.DueDate)
}

// EffectiveReturn is the instant fines are computed against: the recorded
// return time when present, otherwise the evaluation time.
func (b *Borrowing) EffectiveReturn(now time.Time) time.Time {
	if b.ReturnDate != nil {
		return *b.ReturnDate
	}
	return now
}
