package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	"github.com/perpusgo/lending-api/internal/domain/repository"
	"github.com/perpusgo/lending-api/pkg/apperr"
)

const borrowingColumns = `borrowing_id, user_id, book_id, borrow_date, due_date,
	return_date, status, fine_amount, created_at, updated_at`

type BorrowingRepository struct {
	pool *pgxpool.Pool
}

func NewBorrowingRepository(pool *pgxpool.Pool) *BorrowingRepository {
	return &BorrowingRepository{pool: pool}
}

// nilTime lets a zero BorrowDate fall through to the column default.
func nilTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanBorrowing(row pgx.Row) (*entity.Borrowing, error) {
	b := &entity.Borrowing{}
	err := row.Scan(&b.ID, &b.UserID, &b.BookID, &b.BorrowDate, &b.DueDate,
		&b.ReturnDate, &b.Status, &b.FineAmount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "borrowing not found")
		}
		return nil, mapError(err)
	}
	return b, nil
}

func (r *BorrowingRepository) Create(ctx context.Context, b *entity.Borrowing) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO borrowings (user_id, book_id, borrow_date, due_date, status, fine_amount)
		VALUES ($1, $2, COALESCE($3, now()), $4, $5, $6)
		RETURNING borrowing_id, borrow_date, created_at, updated_at
	`, b.UserID, b.BookID, nilTime(b.BorrowDate), b.DueDate, b.Status, b.FineAmount)

	if err := row.Scan(&b.ID, &b.BorrowDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *BorrowingRepository) FindByID(ctx context.Context, id int64) (*entity.Borrowing, error) {
	return scanBorrowing(querier(ctx, r.pool).QueryRow(ctx, `
		SELECT `+borrowingColumns+` FROM borrowings WHERE borrowing_id = $1
	`, id))
}

func (r *BorrowingRepository) FindByUserID(ctx context.Context, userID int64) ([]*entity.Borrowing, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, `
		SELECT `+borrowingColumns+` FROM borrowings
		WHERE user_id = $1
		ORDER BY borrow_date DESC
	`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*entity.Borrowing
	for rows.Next() {
		b, err := scanBorrowing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, mapError(rows.Err())
}

func (r *BorrowingRepository) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := querier(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM borrowings
		WHERE user_id = $1 AND status = 'borrowed'
	`, userID).Scan(&n)
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *BorrowingRepository) Update(ctx context.Context, b *entity.Borrowing) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		UPDATE borrowings
		SET borrow_date = $1, due_date = $2, return_date = $3, status = $4, fine_amount = $5
		WHERE borrowing_id = $6
		RETURNING updated_at
	`, b.BorrowDate, b.DueDate, b.ReturnDate, b.Status, b.FineAmount, b.ID)

	if err := row.Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "borrowing not found")
		}
		return mapError(err)
	}
	return nil
}

func (r *BorrowingRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := querier(ctx, r.pool).Exec(ctx, `DELETE FROM borrowings WHERE borrowing_id = $1`, id)
	if err != nil {
		return false, mapError(err)
	}
	return res.RowsAffected() > 0, nil
}

var _ repository.BorrowingRepository = (*BorrowingRepository)(nil)
