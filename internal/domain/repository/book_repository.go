package repository

import (
	"context"

	"github.com/perpusgo/lending-api/internal/domain/entity"
)

// BookRepository defines the store capability for books.
//
// DecrementAvailable is the serializing write path for the contended copy
// count: it must be a conditional update (available_copies > 0) and report
// whether a row was actually decremented, so two borrowers racing for the
// last copy cannot both succeed.
type BookRepository interface {
	Create(ctx context.Context, b *entity.Book) error
	FindByID(ctx context.Context, id int64) (*entity.Book, error)
	Update(ctx context.Context, b *entity.Book) error
	SetAvailableCopies(ctx context.Context, id int64, copies int) error
	DecrementAvailable(ctx context.Context, id int64) (bool, error)
	IncrementAvailable(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) (bool, error)
}
