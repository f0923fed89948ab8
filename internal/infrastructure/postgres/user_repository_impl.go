package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	"github.com/perpusgo/lending-api/internal/domain/repository"
	"github.com/perpusgo/lending-api/pkg/apperr"
)

const userColumns = `user_id, username, email, full_name, phone, role, status, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Phone,
		&u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, mapError(err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (username, email, full_name, phone, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id, created_at, updated_at
	`, u.Username, u.Email, u.FullName, u.Phone, u.Role, u.Status)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return scanUser(querier(ctx, r.pool).QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE user_id = $1
	`, id))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return scanUser(querier(ctx, r.pool).QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1
	`, username))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(querier(ctx, r.pool).QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, email))
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	// updated_at is refreshed by the trg_users_updated_at trigger.
	row := querier(ctx, r.pool).QueryRow(ctx, `
		UPDATE users
		SET username = $1, email = $2, full_name = $3, phone = $4, role = $5, status = $6
		WHERE user_id = $7
		RETURNING updated_at
	`, u.Username, u.Email, u.FullName, u.Phone, u.Role, u.Status, u.ID)

	if err := row.Scan(&u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "user not found")
		}
		return mapError(err)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	// Borrowings go with the user via fk_borrowings_user_id ON DELETE CASCADE.
	res, err := querier(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return false, mapError(err)
	}
	return res.RowsAffected() > 0, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
