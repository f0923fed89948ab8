package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	"github.com/perpusgo/lending-api/pkg/apperr"
)

func activeUser(n string) *entity.User {
	return &entity.User{
		Username: n,
		Email:    n + "@example.com",
		Role:     entity.RoleMember,
		Status:   entity.UserActive,
	}
}

func shelfBook(isbn string, copies int) *entity.Book {
	return &entity.Book{
		ISBN:            isbn,
		Title:           "Title " + isbn,
		TotalCopies:     copies,
		AvailableCopies: copies,
		Status:          entity.BookAvailable,
	}
}

func openLoan(userID, bookID int64, at time.Time) *entity.Borrowing {
	return &entity.Borrowing{
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: at,
		DueDate:    at.AddDate(0, 0, 14),
		Status:     entity.StatusBorrowed,
	}
}

func constraintName(t *testing.T, err error) string {
	t.Helper()
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, apperr.KindConstraint, e.Kind)
	return e.Constraint
}

func TestUserConstraints(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Users().Create(ctx, activeUser("andi")))

	t.Run("unique username", func(t *testing.T) {
		dup := activeUser("andi")
		dup.Email = "different@example.com"
		err := s.Users().Create(ctx, dup)
		assert.Equal(t, "uq_users_username", constraintName(t, err))
	})

	t.Run("unique email", func(t *testing.T) {
		dup := activeUser("other")
		dup.Email = "andi@example.com"
		err := s.Users().Create(ctx, dup)
		assert.Equal(t, "uq_users_email", constraintName(t, err))
	})

	t.Run("not null username", func(t *testing.T) {
		u := activeUser("temp")
		u.Username = ""
		err := s.Users().Create(ctx, u)
		assert.Equal(t, "username", constraintName(t, err))
	})

	t.Run("role check", func(t *testing.T) {
		u := activeUser("roley")
		u.Role = "superuser"
		err := s.Users().Create(ctx, u)
		assert.Equal(t, "chk_users_role", constraintName(t, err))
	})

	t.Run("status check", func(t *testing.T) {
		u := activeUser("stat")
		u.Status = "banned"
		err := s.Users().Create(ctx, u)
		assert.Equal(t, "chk_users_status", constraintName(t, err))
	})
}

func TestBookConstraints(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Books().Create(ctx, shelfBook("isbn-1", 2)))

	t.Run("unique isbn", func(t *testing.T) {
		err := s.Books().Create(ctx, shelfBook("isbn-1", 1))
		assert.Equal(t, "uq_books_isbn", constraintName(t, err))
	})

	t.Run("available copies bounds", func(t *testing.T) {
		b := shelfBook("isbn-2", 1)
		b.AvailableCopies = 2
		err := s.Books().Create(ctx, b)
		assert.Equal(t, "check_available_copies", constraintName(t, err))

		b.AvailableCopies = -1
		err = s.Books().Create(ctx, b)
		assert.Equal(t, "check_available_copies", constraintName(t, err))
	})

	t.Run("publication year bounds, zero means unknown", func(t *testing.T) {
		b := shelfBook("isbn-3", 1)
		b.PublicationYear = 1066
		err := s.Books().Create(ctx, b)
		assert.Equal(t, "chk_books_publication_year", constraintName(t, err))

		b.PublicationYear = 0
		assert.NoError(t, s.Books().Create(ctx, b))
	})

	t.Run("increment past total", func(t *testing.T) {
		b := shelfBook("isbn-4", 1)
		require.NoError(t, s.Books().Create(ctx, b))
		err := s.Books().IncrementAvailable(ctx, b.ID)
		assert.Equal(t, "check_available_copies", constraintName(t, err))
	})
}

func TestBorrowingConstraints(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now()

	u := activeUser("reader")
	require.NoError(t, s.Users().Create(ctx, u))
	b := shelfBook("isbn-b", 1)
	require.NoError(t, s.Books().Create(ctx, b))

	t.Run("foreign key on user", func(t *testing.T) {
		err := s.Borrowings().Create(ctx, openLoan(999, b.ID, now))
		assert.Equal(t, "fk_borrowings_user_id", constraintName(t, err))
	})

	t.Run("foreign key on book", func(t *testing.T) {
		err := s.Borrowings().Create(ctx, openLoan(u.ID, 999, now))
		assert.Equal(t, "fk_borrowings_book_id", constraintName(t, err))
	})

	t.Run("due date must follow borrow date", func(t *testing.T) {
		loan := openLoan(u.ID, b.ID, now)
		loan.DueDate = loan.BorrowDate
		err := s.Borrowings().Create(ctx, loan)
		assert.Equal(t, "chk_due_after_borrow", constraintName(t, err))
	})

	t.Run("status check", func(t *testing.T) {
		loan := openLoan(u.ID, b.ID, now)
		loan.Status = "lost"
		err := s.Borrowings().Create(ctx, loan)
		assert.Equal(t, "chk_borrowings_status", constraintName(t, err))
	})
}

func TestCascadeDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("deleting a user removes their loans", func(t *testing.T) {
		s := NewStore()
		u := activeUser("reader")
		require.NoError(t, s.Users().Create(ctx, u))
		b := shelfBook("isbn-c", 1)
		require.NoError(t, s.Books().Create(ctx, b))
		loan := openLoan(u.ID, b.ID, now)
		require.NoError(t, s.Borrowings().Create(ctx, loan))

		deleted, err := s.Users().Delete(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		_, err = s.Borrowings().FindByID(ctx, loan.ID)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("deleting a book removes its loans", func(t *testing.T) {
		s := NewStore()
		u := activeUser("reader")
		require.NoError(t, s.Users().Create(ctx, u))
		b := shelfBook("isbn-d", 1)
		require.NoError(t, s.Books().Create(ctx, b))
		loan := openLoan(u.ID, b.ID, now)
		require.NoError(t, s.Borrowings().Create(ctx, loan))

		deleted, err := s.Books().Delete(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		_, err = s.Borrowings().FindByID(ctx, loan.ID)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("deleting a missing row reports false without error", func(t *testing.T) {
		s := NewStore()
		deleted, err := s.Users().Delete(ctx, 42)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestUpdatedAtTrigger(t *testing.T) {
	ctx := context.Background()
	tick := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore().WithClock(func() time.Time { return tick })

	u := activeUser("clocked")
	require.NoError(t, s.Users().Create(ctx, u))
	created := u.UpdatedAt
	require.Equal(t, tick, created)

	tick = tick.Add(time.Minute)
	u.FullName = "Renamed"
	require.NoError(t, s.Users().Update(ctx, u))

	got, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(created), "updated_at must advance on mutation")
}

func TestUnitOfWorkRollback(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	b := shelfBook("isbn-tx", 3)
	require.NoError(t, s.Books().Create(ctx, b))

	boom := errors.New("boom")
	err := s.Do(ctx, func(ctx context.Context) error {
		ok, err := s.Books().DecrementAvailable(ctx, b.ID)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Books().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableCopies, "a failed unit of work must leave no trace")
}

func TestUnitOfWorkNesting(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	b := shelfBook("isbn-nest", 2)
	require.NoError(t, s.Books().Create(ctx, b))

	err := s.Do(ctx, func(ctx context.Context) error {
		// The inner Do joins the outer work instead of deadlocking on the lock.
		return s.Do(ctx, func(ctx context.Context) error {
			_, err := s.Books().DecrementAvailable(ctx, b.ID)
			return err
		})
	})
	require.NoError(t, err)

	got, err := s.Books().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)
}
