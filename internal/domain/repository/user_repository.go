package repository

import (
	"context"

	"github.com/perpusgo/lending-api/internal/domain/entity"
)

// UserRepository defines the store capability for users. Delete cascades to
// the user's borrowings, either natively (postgres) or via explicit cleanup
// inside the same unit of work.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) (bool, error)
}
