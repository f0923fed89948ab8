package repository

import (
	"context"

	"github.com/perpusgo/lending-api/internal/domain/entity"
)

// BorrowingRepository defines the store capability for loan records.
type BorrowingRepository interface {
	Create(ctx context.Context, b *entity.Borrowing) error
	FindByID(ctx context.Context, id int64) (*entity.Borrowing, error)
	FindByUserID(ctx context.Context, userID int64) ([]*entity.Borrowing, error)
	CountActiveByUser(ctx context.Context, userID int64) (int, error)
	Update(ctx context.Context, b *entity.Borrowing) error
	Delete(ctx context.Context, id int64) (bool, error)
}
