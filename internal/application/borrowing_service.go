package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	repo "github.com/perpusgo/lending-api/internal/domain/repository"
	"github.com/perpusgo/lending-api/pkg/apperr"
)

// BorrowingService is the business-rule layer around the raw store
// operations. Each workflow runs as one unit of work: the pre-checks give
// precise business errors before anything mutates, and the store's own
// constraints remain the non-bypassable backstop behind them.
//
// The service never retries a failed workflow; a retry is the caller's call.
type BorrowingService struct {
	Users      repo.UserRepository
	Books      repo.BookRepository
	Borrowings repo.BorrowingRepository
	UoW        repo.UnitOfWork
	Logger     *logrus.Logger

	MaxActiveLoans int
	DailyFineRate  int64
	MaxLoanDays    int

	// Cache, when set, is told to drop cached book entries after the
	// workflows mutate a copy count.
	Cache BookCacheInvalidator

	// Now is the evaluation clock; nil means time.Now. Injectable for tests.
	Now func() time.Time
}

// BookCacheInvalidator is the slice of BookService the lending workflows need.
type BookCacheInvalidator interface {
	InvalidateBook(ctx context.Context, id int64)
}

func NewBorrowingService(users repo.UserRepository, books repo.BookRepository,
	borrowings repo.BorrowingRepository, uow repo.UnitOfWork, logger *logrus.Logger,
	maxActiveLoans int, dailyFineRate int64, maxLoanDays int) *BorrowingService {
	return &BorrowingService{
		Users:          users,
		Books:          books,
		Borrowings:     borrowings,
		UoW:            uow,
		Logger:         logger,
		MaxActiveLoans: maxActiveLoans,
		DailyFineRate:  dailyFineRate,
		MaxLoanDays:    maxLoanDays,
	}
}

func (s *BorrowingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Borrow lends one copy of a book to a user for loanDays days.
//
// Preconditions, first failure wins: the user exists and is active, the book
// exists with a copy available, and the user is below the concurrent-loan
// maximum. The copy-count decrement and the borrowing insert commit together
// or not at all.
func (s *BorrowingService) Borrow(ctx context.Context, userID, bookID int64, loanDays int) (*entity.Borrowing, error) {
	if userID <= 0 {
		return nil, apperr.New(apperr.KindValidation, "user id is required")
	}
	if bookID <= 0 {
		return nil, apperr.New(apperr.KindValidation, "book id is required")
	}
	if loanDays <= 0 {
		return nil, apperr.New(apperr.KindValidation, "loan days must be positive")
	}
	if s.MaxLoanDays > 0 && loanDays > s.MaxLoanDays {
		return nil, apperr.Newf(apperr.KindValidation, "loan days must not exceed %d", s.MaxLoanDays)
	}

	var borrowing *entity.Borrowing
	err := s.UoW.Do(ctx, func(ctx context.Context) error {
		user, err := s.Users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.CanBorrow() {
			return apperr.Newf(apperr.KindEligibility, "user is not active (status %s)", user.Status)
		}

		book, err := s.Books.FindByID(ctx, bookID)
		if err != nil {
			return err
		}
		if !book.HasAvailableCopy() {
			return apperr.New(apperr.KindAvailability, "no copies available")
		}

		active, err := s.Borrowings.CountActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		if active >= s.MaxActiveLoans {
			return apperr.Newf(apperr.KindLimit, "borrowing limit reached (%d active loans)", active)
		}

		// Write phase. The conditional decrement is the serialization point:
		// losing the race for the last copy surfaces as the same availability
		// error as the pre-check, never as a store fault.
		ok, err := s.Books.DecrementAvailable(ctx, bookID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.KindAvailability, "no copies available")
		}

		now := s.now()
		borrowing = &entity.Borrowing{
			UserID:     userID,
			BookID:     bookID,
			BorrowDate: now,
			DueDate:    now.AddDate(0, 0, loanDays),
			Status:     entity.StatusBorrowed,
		}
		return s.Borrowings.Create(ctx, borrowing)
	})
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.InvalidateBook(ctx, bookID)
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"borrowing_id": borrowing.ID,
			"user_id":      userID,
			"book_id":      bookID,
			"due_date":     borrowing.DueDate,
		}).Info("book borrowed")
	}
	return borrowing, nil
}

// Return closes a loan: records the return time, persists the fine when the
// loan ran overdue, and puts the copy back on the shelf. Returning a loan
// that is not in the borrowed state is a conflict.
func (s *BorrowingService) Return(ctx context.Context, borrowingID int64) (bool, error) {
	if borrowingID <= 0 {
		return false, apperr.New(apperr.KindValidation, "borrowing id is required")
	}

	var fine int64
	var bookID int64
	err := s.UoW.Do(ctx, func(ctx context.Context) error {
		borrowing, err := s.Borrowings.FindByID(ctx, borrowingID)
		if err != nil {
			return err
		}
		bookID = borrowing.BookID
		if borrowing.Status != entity.StatusBorrowed {
			return apperr.New(apperr.KindConflict, "borrowing already returned")
		}

		now := s.now()
		fine = s.fineFor(borrowing, now)
		borrowing.ReturnDate = &now
		borrowing.Status = entity.StatusReturned
		borrowing.FineAmount = fine
		if err := s.Borrowings.Update(ctx, borrowing); err != nil {
			return err
		}
		return s.Books.IncrementAvailable(ctx, borrowing.BookID)
	})
	if err != nil {
		return false, err
	}

	if s.Cache != nil {
		s.Cache.InvalidateBook(ctx, bookID)
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"borrowing_id": borrowingID,
			"fine_amount":  fine,
		}).Info("book returned")
	}
	return true, nil
}

// CalculateFine computes the fine owed on a loan without mutating anything.
// For an open loan the evaluation clock is the effective time, so repeated
// calls as time passes never yield a smaller fine.
func (s *BorrowingService) CalculateFine(ctx context.Context, borrowingID int64) (int64, error) {
	if borrowingID <= 0 {
		return 0, apperr.New(apperr.KindValidation, "borrowing id is required")
	}
	borrowing, err := s.Borrowings.FindByID(ctx, borrowingID)
	if err != nil {
		return 0, err
	}
	return s.fineFor(borrowing, s.now()), nil
}

// fineFor applies the fine schedule: one DailyFineRate per full day the
// effective return time sits past the due date. Amounts are whole currency
// units, so no rounding beyond the day floor is involved.
func (s *BorrowingService) fineFor(b *entity.Borrowing, now time.Time) int64 {
	overdue := b.EffectiveReturn(now).Sub(b.DueDate)
	if overdue <= 0 {
		return 0
	}
	days := int64(overdue / (24 * time.Hour))
	return days * s.DailyFineRate
}

// FindByID fetches a single loan record.
func (s *BorrowingService) FindByID(ctx context.Context, borrowingID int64) (*entity.Borrowing, error) {
	if borrowingID <= 0 {
		return nil, apperr.New(apperr.KindValidation, "borrowing id is required")
	}
	return s.Borrowings.FindByID(ctx, borrowingID)
}

// ListByUser returns all of a user's loans, newest first.
func (s *BorrowingService) ListByUser(ctx context.Context, userID int64) ([]*entity.Borrowing, error) {
	if userID <= 0 {
		return nil, apperr.New(apperr.KindValidation, "user id is required")
	}
	if _, err := s.Users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.Borrowings.FindByUserID(ctx, userID)
}
