package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	repo "github.com/perpusgo/lending-api/internal/domain/repository"
	"github.com/perpusgo/lending-api/pkg/apperr"
)

// BookService manages the catalog. Reads go through a short-TTL redis cache
// when one is configured; every copy-count mutation drops the cached entry so
// availability seen by callers is never staler than the TTL.
type BookService struct {
	Books    repo.BookRepository
	UoW      repo.UnitOfWork
	Redis    *redis.Client
	Logger   *logrus.Logger
	CacheTTL time.Duration
}

func NewBookService(books repo.BookRepository, uow repo.UnitOfWork,
	rdb *redis.Client, logger *logrus.Logger, cacheTTL time.Duration) *BookService {
	return &BookService{Books: books, UoW: uow, Redis: rdb, Logger: logger, CacheTTL: cacheTTL}
}

func bookCacheKey(id int64) string {
	return fmt.Sprintf("book:%d", id)
}

type CreateBookInput struct {
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
}

// Create adds a catalog entry. The copy-count and publication-year invariants
// are pre-checked here; the check constraints stay as the backstop.
func (s *BookService) Create(ctx context.Context, in CreateBookInput) (*entity.Book, error) {
	if in.ISBN == "" {
		return nil, apperr.New(apperr.KindValidation, "isbn is required")
	}
	if in.Title == "" {
		return nil, apperr.New(apperr.KindValidation, "title is required")
	}
	if in.TotalCopies < 0 || in.AvailableCopies < 0 || in.AvailableCopies > in.TotalCopies {
		return nil, apperr.New(apperr.KindValidation, "available copies must be between 0 and total copies")
	}
	if in.PublicationYear != 0 &&
		(in.PublicationYear < entity.MinPublicationYear || in.PublicationYear > entity.MaxPublicationYear) {
		return nil, apperr.Newf(apperr.KindValidation, "publication year must be between %d and %d",
			entity.MinPublicationYear, entity.MaxPublicationYear)
	}

	book := &entity.Book{
		ISBN:            in.ISBN,
		Title:           in.Title,
		AuthorID:        in.AuthorID,
		PublisherID:     in.PublisherID,
		CategoryID:      in.CategoryID,
		PublicationYear: in.PublicationYear,
		Pages:           in.Pages,
		Language:        in.Language,
		Description:     in.Description,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.AvailableCopies,
		Price:           in.Price,
		Location:        in.Location,
		Status:          entity.BookAvailable,
	}
	if err := s.Books.Create(ctx, book); err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"book_id": book.ID, "isbn": book.ISBN}).Info("book created")
	}
	return book, nil
}

// Get fetches a book, serving from the cache when possible.
func (s *BookService) Get(ctx context.Context, id int64) (*entity.Book, error) {
	if id <= 0 {
		return nil, apperr.New(apperr.KindValidation, "book id is required")
	}

	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, bookCacheKey(id)).Bytes(); err == nil {
			var b entity.Book
			if err := json.Unmarshal(raw, &b); err == nil {
				return &b, nil
			}
		}
	}

	book, err := s.Books.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, book)
	return book, nil
}

type UpdateBookInput struct {
	Title       string
	Language    string
	Description string
	Location    string
	Price       *int64
	Status      entity.BookStatus
}

// Update patches mutable catalog fields.
func (s *BookService) Update(ctx context.Context, id int64, in UpdateBookInput) (*entity.Book, error) {
	if id <= 0 {
		return nil, apperr.New(apperr.KindValidation, "book id is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown status %q", in.Status)
	}

	var book *entity.Book
	err := s.UoW.Do(ctx, func(ctx context.Context) error {
		b, err := s.Books.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Title != "" {
			b.Title = in.Title
		}
		if in.Language != "" {
			b.Language = in.Language
		}
		if in.Description != "" {
			b.Description = in.Description
		}
		if in.Location != "" {
			b.Location = in.Location
		}
		if in.Price != nil {
			b.Price = *in.Price
		}
		if in.Status != "" {
			b.Status = in.Status
		}
		if err := s.Books.Update(ctx, b); err != nil {
			return err
		}
		book = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return book, nil
}

// SetAvailableCopies is the dedicated copy-count mutator. The target value is
// validated against total copies inside the unit of work.
func (s *BookService) SetAvailableCopies(ctx context.Context, id int64, copies int) error {
	if id <= 0 {
		return apperr.New(apperr.KindValidation, "book id is required")
	}
	if copies < 0 {
		return apperr.New(apperr.KindValidation, "copies must not be negative")
	}
	err := s.UoW.Do(ctx, func(ctx context.Context) error {
		b, err := s.Books.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if copies > b.TotalCopies {
			return apperr.Newf(apperr.KindValidation, "copies must not exceed total of %d", b.TotalCopies)
		}
		return s.Books.SetAvailableCopies(ctx, id, copies)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *BookService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.New(apperr.KindValidation, "book id is required")
	}
	deleted, err := s.Books.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.New(apperr.KindNotFound, "book not found")
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *BookService) cache(ctx context.Context, b *entity.Book) {
	if s.Redis == nil || s.CacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, bookCacheKey(b.ID), raw, s.CacheTTL).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("book_id", b.ID).Warn("book cache set failed")
	}
}

// InvalidateBook drops the cached entry for a book; the lending workflows
// call it after copy-count mutations.
func (s *BookService) InvalidateBook(ctx context.Context, id int64) {
	s.invalidate(ctx, id)
}

func (s *BookService) invalidate(ctx context.Context, id int64) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, bookCacheKey(id)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("book_id", id).Warn("book cache invalidate failed")
	}
}
