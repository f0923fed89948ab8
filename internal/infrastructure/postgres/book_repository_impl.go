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

const bookColumns = `book_id, isbn, title, author_id, publisher_id, category_id,
	COALESCE(publication_year, 0), pages, language, description,
	total_copies, available_copies, price, location, status, created_at, updated_at`

type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

func scanBook(row pgx.Row) (*entity.Book, error) {
	b := &entity.Book{}
	err := row.Scan(&b.ID, &b.ISBN, &b.Title, &b.AuthorID, &b.PublisherID, &b.CategoryID,
		&b.PublicationYear, &b.Pages, &b.Language, &b.Description,
		&b.TotalCopies, &b.AvailableCopies, &b.Price, &b.Location, &b.Status,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "book not found")
		}
		return nil, mapError(err)
	}
	return b, nil
}

func (r *BookRepository) Create(ctx context.Context, b *entity.Book) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO books (isbn, title, author_id, publisher_id, category_id,
			publication_year, pages, language, description,
			total_copies, available_copies, price, location, status)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0), $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING book_id, created_at, updated_at
	`, b.ISBN, b.Title, b.AuthorID, b.PublisherID, b.CategoryID,
		b.PublicationYear, b.Pages, b.Language, b.Description,
		b.TotalCopies, b.AvailableCopies, b.Price, b.Location, b.Status)

	if err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (*entity.Book, error) {
	return scanBook(querier(ctx, r.pool).QueryRow(ctx, `
		SELECT `+bookColumns+` FROM books WHERE book_id = $1
	`, id))
}

func (r *BookRepository) Update(ctx context.Context, b *entity.Book) error {
	row := querier(ctx, r.pool).QueryRow(ctx, `
		UPDATE books
		SET isbn = $1, title = $2, author_id = $3, publisher_id = $4, category_id = $5,
			publication_year = NULLIF($6, 0), pages = $7, language = $8, description = $9,
			total_copies = $10, available_copies = $11, price = $12, location = $13, status = $14
		WHERE book_id = $15
		RETURNING updated_at
	`, b.ISBN, b.Title, b.AuthorID, b.PublisherID, b.CategoryID,
		b.PublicationYear, b.Pages, b.Language, b.Description,
		b.TotalCopies, b.AvailableCopies, b.Price, b.Location, b.Status, b.ID)

	if err := row.Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "book not found")
		}
		return mapError(err)
	}
	return nil
}

func (r *BookRepository) SetAvailableCopies(ctx context.Context, id int64, copies int) error {
	res, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE books SET available_copies = $1 WHERE book_id = $2
	`, copies, id)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "book not found")
	}
	return nil
}

// DecrementAvailable takes one copy off the shelf with a conditional update.
// The WHERE clause is the serialization point for borrowers racing on the
// last copy: under read committed the second writer re-evaluates the
// condition after the first commits and affects zero rows.
func (r *BookRepository) DecrementAvailable(ctx context.Context, id int64) (bool, error) {
	res, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE books
		SET available_copies = available_copies - 1
		WHERE book_id = $1 AND available_copies > 0
	`, id)
	if err != nil {
		return false, mapError(err)
	}
	return res.RowsAffected() > 0, nil
}

func (r *BookRepository) IncrementAvailable(ctx context.Context, id int64) error {
	// check_available_copies backstops available_copies <= total_copies.
	res, err := querier(ctx, r.pool).Exec(ctx, `
		UPDATE books
		SET available_copies = available_copies + 1
		WHERE book_id = $1
	`, id)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "book not found")
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := querier(ctx, r.pool).Exec(ctx, `DELETE FROM books WHERE book_id = $1`, id)
	if err != nil {
		return false, mapError(err)
	}
	return res.RowsAffected() > 0, nil
}

var _ repository.BookRepository = (*BookRepository)(nil)
