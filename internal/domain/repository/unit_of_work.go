package repository

import "context"

// UnitOfWork runs fn as one all-or-nothing group of store operations.
// Repository calls made with the context passed to fn join the same
// transaction; if fn returns an error or panics, every effect is rolled back.
//
// Implementations must give at least read-committed isolation with a
// serializing write path on contended rows, so the borrow workflow's
// read-then-decide-then-write sequence cannot act on stale data.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
