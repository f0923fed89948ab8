package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	"github.com/perpusgo/lending-api/internal/infrastructure/memory"
	"github.com/perpusgo/lending-api/pkg/apperr"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type lendingFixture struct {
	store   *memory.Store
	clock   *testClock
	svc     *BorrowingService
	userSvc *UserService
	bookSvc *BookService
}

func newLendingFixture(t *testing.T) *lendingFixture {
	t.Helper()
	clock := newTestClock()
	store := memory.NewStore().WithClock(clock.Now)
	svc := NewBorrowingService(store.Users(), store.Books(), store.Borrowings(), store, nil, 5, 1000, 90)
	svc.Now = clock.Now
	return &lendingFixture{
		store:   store,
		clock:   clock,
		svc:     svc,
		userSvc: NewUserService(store.Users(), store.Borrowings(), store, nil),
		bookSvc: NewBookService(store.Books(), store, nil, nil, 0),
	}
}

var seedSeq atomic.Int64

func (f *lendingFixture) seedUser(t *testing.T, status entity.UserStatus) *entity.User {
	t.Helper()
	n := seedSeq.Add(1)
	u := &entity.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Role:     entity.RoleMember,
		Status:   status,
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *lendingFixture) seedBook(t *testing.T, copies int) *entity.Book {
	t.Helper()
	b := &entity.Book{
		ISBN:            fmt.Sprintf("isbn-%d", seedSeq.Add(1)),
		Title:           "Some Title",
		TotalCopies:     copies,
		AvailableCopies: copies,
		Status:          entity.BookAvailable,
	}
	require.NoError(t, f.store.Books().Create(context.Background(), b))
	return b
}

func (f *lendingFixture) book(t *testing.T, id int64) *entity.Book {
	t.Helper()
	b, err := f.store.Books().FindByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func TestBorrow(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path decrements the copy and opens the loan", func(t *testing.T) {
		f := newLendingFixture(t)
		user := f.seedUser(t, entity.UserActive)
		book := f.seedBook(t, 2)

		b, err := f.svc.Borrow(ctx, user.ID, book.ID, 14)
		require.NoError(t, err)

		assert.Equal(t, entity.StatusBorrowed, b.Status)
		assert.Equal(t, user.ID, b.UserID)
		assert.Equal(t, book.ID, b.BookID)
		assert.Equal(t, f.clock.Now(), b.BorrowDate)
		assert.Equal(t, f.clock.Now().AddDate(0, 0, 14), b.DueDate)
		assert.Nil(t, b.ReturnDate)
		assert.Equal(t, 1, f.book(t, book.ID).AvailableCopies)
	})

	t.Run("rejects bad input before touching the store", func(t *testing.T) {
		f := newLendingFixture(t)
		user := f.seedUser(t, entity.UserActive)
		book := f.seedBook(t, 1)

		for _, tc := range []struct {
			name     string
			userID   int64
			bookID   int64
			loanDays int
		}{
			{"zero user", 0, book.ID, 14},
			{"zero book", user.ID, 0, 14},
			{"zero days", user.ID, book.ID, 0},
			{"negative days", user.ID, book.ID, -3},
			{"days over cap", user.ID, book.ID, 91},
		} {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.svc.Borrow(ctx, tc.userID, tc.bookID, tc.loanDays)
				assert.True(t, apperr.IsValidation(err), "got %v", err)
			})
		}
		assert.Equal(t, 1, f.book(t, book.ID).AvailableCopies)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newLendingFixture(t)
		book := f.seedBook(t, 1)

		_, err := f.svc.Borrow(ctx, 999, book.ID, 14)
		assert.True(t, apperr.IsNotFound(err))
		assert.Equal(t, 1, f.book(t, book.ID).AvailableCopies)
	})

	t.Run("inactive and suspended users are not eligible", func(t *testing.T) {
		f := newLendingFixture(t)
		book := f.seedBook(t, 1)

		for _, status := range []entity.UserStatus{entity.UserInactive, entity.UserSuspended} {
			user := f.seedUser(t, status)
			_, err := f.svc.Borrow(ctx, user.ID, book.ID, 14)
			assert.True(t, apperr.IsEligibility(err), "status %s: got %v", status, err)
		}
		assert.Equal(t, 1, f.book(t, book.ID).AvailableCopies)
	})

	t.Run("no copies available", func(t *testing.T) {
		f := newLendingFixture(t)
		user := f.seedUser(t, entity.UserActive)
		book := f.seedBook(t, 0)

		_, err := f.svc.Borrow(ctx, user.ID, book.ID, 14)
		assert.True(t, apperr.IsAvailability(err))

		loans, err := f.svc.ListByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, loans, "failed borrow must not leave a loan behind")
		assert.Equal(t, 0, f.book(t, book.ID).AvailableCopies)
	})

	t.Run("concurrent-loan limit", func(t *testing.T) {
		f := newLendingFixture(t)
		user := f.seedUser(t, entity.UserActive)
		book := f.seedBook(t, 10)

		for i := 0; i < 5; i++ {
			_, err := f.svc.Borrow(ctx, user.ID, book.ID, 14)
			require.NoError(t, err)
		}

		_, err := f.svc.Borrow(ctx, user.ID, book.ID, 14)
		assert.True(t, apperr.IsLimit(err))
		assert.Equal(t, 5, f.book(t, book.ID).AvailableCopies,
			"the rejected borrow must not consume a copy")

		// Returning one loan frees a slot.
		loans, err := f.svc.ListByUser(ctx, user.ID)
		require.NoError(t, err)
		_, err = f.svc.Return(ctx, loans[0].ID)
		require.NoError(t, err)

		_, err = f.svc.Borrow(ctx, user.ID, book.ID, 14)
		assert.NoError(t, err)
	})
}

func TestBorrowConcurrentLastCopy(t *testing.T) {
	ctx := context.Background()
	f := newLendingFixture(t)
	book := f.seedBook(t, 1)

	const workers = 20
	users := make([]*entity.User, workers)
	for i := range users {
		users[i] = f.seedUser(t, entity.UserActive)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Borrow(ctx, users[i].ID, book.ID, 14)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.True(t, apperr.IsAvailability(err), "loser got %v", err)
	}
	assert.Equal(t, 1, won, "exactly one borrower may take the last copy")
	assert.Equal(t, 0, f.book(t, book.ID).AvailableCopies)
}

func TestReturn(t *testing.T) {
	ctx := context.Background()

	t.Run("on-time return restores the copy with no fine", func(t *testing.T) {
		f := newLendingFixture(t)
		user := f.seedUser(t, entity.UserActive)
		book := f.seedBook(t, 1)

		b, err := f.svc.Borrow(ctx, user.ID, book.ID, 14)
		require.NoError(t, err)
		require.Equal(t, 0, f.book(t, book.ID).AvailableCopies)

		f.clock.Advance(7 * 24 * time.Hour)
		ok, err := f.svc.Return(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := f.svc.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusReturned, got.Status)
		require.NotNil(t, got.ReturnDate)
		assert.Equal(t, f.clock.Now(), *got.ReturnDate)
		assert.Equal(t, int64(0), got.FineAmount)
		assert.Equal(t, 1, f.book(t, book.ID).AvailableCopies)
	})

	t.Run("late return persists the fine", func(t *testing.T) {
		f := newLendingFixture(t)
		user := f.seedUser(t, entity.UserActive)
		book := f.seedBook(t, 1)

		b, err := f.svc.Borrow(ctx, user.ID, book.ID, 14)
		require.NoError(t, err)

		// 5 full days past due.
		f.clock.Advance(19*24*time.Hour + time.Hour)
		_, err = f.svc.Return(ctx, b.ID)
		require.NoError(t, err)

		got, err := f.svc.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), got.FineAmount)
	})

	t.Run("double return is a conflict and changes nothing", func(t *testing.T) {
		f := newLendingFixture(t)
		user := f.seedUser(t, entity.UserActive)
		book := f.seedBook(t, 1)

		b, err := f.svc.Borrow(ctx, user.ID, book.ID, 14)
		require.NoError(t, err)
		_, err = f.svc.Return(ctx, b.ID)
		require.NoError(t, err)

		before, err := f.svc.FindByID(ctx, b.ID)
		require.NoError(t, err)

		_, err = f.svc.Return(ctx, b.ID)
		assert.True(t, apperr.IsConflict(err))

		after, err := f.svc.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, 1, f.book(t, book.ID).AvailableCopies,
			"the copy must not come back twice")
	})

	t.Run("unknown borrowing", func(t *testing.T) {
		f := newLendingFixture(t)
		_, err := f.svc.Return(ctx, 404)
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestCalculateFine(t *testing.T) {
	ctx := context.Background()
	f := newLendingFixture(t)
	user := f.seedUser(t, entity.UserActive)
	book := f.seedBook(t, 1)

	b, err := f.svc.Borrow(ctx, user.ID, book.ID, 7)
	require.NoError(t, err)

	fine, err := f.svc.CalculateFine(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fine, "not yet due")

	// Just past due: less than a full day owes nothing.
	f.clock.Advance(7*24*time.Hour + time.Hour)
	fine, err = f.svc.CalculateFine(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fine)

	f.clock.Advance(24 * time.Hour)
	fine, err = f.svc.CalculateFine(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), fine)

	// Fines on an open loan never shrink as time passes.
	f.clock.Advance(48 * time.Hour)
	fine, err = f.svc.CalculateFine(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), fine)

	// Once returned, the fine is pinned to the recorded return time.
	_, err = f.svc.Return(ctx, b.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * 24 * time.Hour)
	fine, err = f.svc.CalculateFine(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), fine)
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	f := newLendingFixture(t)
	user := f.seedUser(t, entity.UserActive)
	book := f.seedBook(t, 3)

	var ids []int64
	for i := 0; i < 3; i++ {
		b, err := f.svc.Borrow(ctx, user.ID, book.ID, 14)
		require.NoError(t, err)
		ids = append(ids, b.ID)
		f.clock.Advance(24 * time.Hour)
	}

	loans, err := f.svc.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, loans, 3)
	// Newest first.
	assert.Equal(t, ids[2], loans[0].ID)
	assert.Equal(t, ids[0], loans[2].ID)

	_, err = f.svc.ListByUser(ctx, 999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestSingleCopyLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newLendingFixture(t)
	user := f.seedUser(t, entity.UserActive)
	book := f.seedBook(t, 1)

	b, err := f.svc.Borrow(ctx, user.ID, book.ID, 14)
	require.NoError(t, err)
	assert.Equal(t, 0, f.book(t, book.ID).AvailableCopies)

	_, err = f.svc.Borrow(ctx, user.ID, book.ID, 14)
	assert.True(t, apperr.IsAvailability(err))

	_, err = f.svc.Return(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.book(t, book.ID).AvailableCopies)
}

func TestBorrowReturnCycleConservesCopies(t *testing.T) {
	ctx := context.Background()
	f := newLendingFixture(t)
	book := f.seedBook(t, 3)

	var users []*entity.User
	for i := 0; i < 4; i++ {
		users = append(users, f.seedUser(t, entity.UserActive))
	}

	var open []int64
	for _, u := range users {
		b, err := f.svc.Borrow(ctx, u.ID, book.ID, 7)
		if err != nil {
			assert.True(t, apperr.IsAvailability(err))
			continue
		}
		open = append(open, b.ID)
	}
	require.Len(t, open, 3)
	assert.Equal(t, 0, f.book(t, book.ID).AvailableCopies)

	for _, id := range open {
		_, err := f.svc.Return(ctx, id)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.book(t, book.ID).AvailableCopies)
}
