// Package memory is an in-memory rendition of the relational store. Every
// constraint the SQL schema declares (foreign keys, checks, uniques,
// not-nulls, the updated_at trigger, cascade deletes) is re-implemented here
// as an explicit check inside the unit of work, so the dual-layer validation
// strategy holds even without a database underneath. The test suites run the
// lending workflows against it.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	"github.com/perpusgo/lending-api/internal/domain/repository"
	"github.com/perpusgo/lending-api/pkg/apperr"
)

type tables struct {
	users      map[int64]*entity.User
	books      map[int64]*entity.Book
	borrowings map[int64]*entity.Borrowing

	nextUserID      int64
	nextBookID      int64
	nextBorrowingID int64
}

func newTables() *tables {
	return &tables{
		users:           make(map[int64]*entity.User),
		books:           make(map[int64]*entity.Book),
		borrowings:      make(map[int64]*entity.Borrowing),
		nextUserID:      1,
		nextBookID:      1,
		nextBorrowingID: 1,
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		users:           make(map[int64]*entity.User, len(t.users)),
		books:           make(map[int64]*entity.Book, len(t.books)),
		borrowings:      make(map[int64]*entity.Borrowing, len(t.borrowings)),
		nextUserID:      t.nextUserID,
		nextBookID:      t.nextBookID,
		nextBorrowingID: t.nextBorrowingID,
	}
	for id, u := range t.users {
		c.users[id] = copyUser(u)
	}
	for id, b := range t.books {
		c.books[id] = copyBook(b)
	}
	for id, b := range t.borrowings {
		c.borrowings[id] = copyBorrowing(b)
	}
	return c
}

func copyUser(u *entity.User) *entity.User {
	cp := *u
	return &cp
}

func copyBook(b *entity.Book) *entity.Book {
	cp := *b
	return &cp
}

func copyBorrowing(b *entity.Borrowing) *entity.Borrowing {
	cp := *b
	if b.ReturnDate != nil {
		rd := *b.ReturnDate
		cp.ReturnDate = &rd
	}
	return &cp
}

// Store holds the tables behind one mutex. A unit of work runs against a
// staged clone under the lock and swaps it in on success, so a failed
// workflow leaves the visible state untouched and concurrent workflows are
// serialized the way short row-locking transactions would be.
type Store struct {
	mu  sync.Mutex
	tab *tables
	now func() time.Time
}

func NewStore() *Store {
	return &Store{tab: newTables(), now: time.Now}
}

// WithClock replaces the timestamp source (creation defaults and the
// updated_at trigger emulation). Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

type stagedKey struct{}

func stagedFrom(ctx context.Context) *tables {
	if t, ok := ctx.Value(stagedKey{}).(*tables); ok {
		return t
	}
	return nil
}

// Do implements repository.UnitOfWork. fn mutates a staged clone; the clone
// replaces the live tables only when fn succeeds.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if stagedFrom(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.tab.clone()
	if err := fn(context.WithValue(ctx, stagedKey{}, staged)); err != nil {
		return err
	}
	s.tab = staged
	return nil
}

// run executes op against the staged tables when the context carries a unit
// of work, otherwise against the live tables under the lock.
func (s *Store) run(ctx context.Context, op func(t *tables) error) error {
	if t := stagedFrom(ctx); t != nil {
		return op(t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return op(s.tab)
}

// Repository accessors. The one Store value satisfies all three store
// capabilities plus the unit of work.

func (s *Store) Users() repository.UserRepository           { return (*userTable)(s) }
func (s *Store) Books() repository.BookRepository           { return (*bookTable)(s) }
func (s *Store) Borrowings() repository.BorrowingRepository { return (*borrowingTable)(s) }

var _ repository.UnitOfWork = (*Store)(nil)

// Constraint checks. Messages name the violated rule the same way the
// postgres error mapping does, so callers can pattern-match either backend.

func notNull(column, value string) error {
	if value == "" {
		return apperr.ConstraintViolation(column, "null value in column "+column, nil)
	}
	return nil
}

func checkViolation(constraint string) error {
	return apperr.ConstraintViolation(constraint, "check violation on "+constraint, nil)
}

func uniqueViolation(constraint string) error {
	return apperr.ConstraintViolation(constraint, "unique violation on "+constraint, nil)
}

func fkViolation(constraint string) error {
	return apperr.ConstraintViolation(constraint, "foreign key violation on "+constraint, nil)
}

func (t *tables) checkUser(u *entity.User, selfID int64) error {
	if err := notNull("username", u.Username); err != nil {
		return err
	}
	if err := notNull("email", u.Email); err != nil {
		return err
	}
	if !u.Role.Valid() {
		return checkViolation("chk_users_role")
	}
	if !u.Status.Valid() {
		return checkViolation("chk_users_status")
	}
	for id, other := range t.users {
		if id == selfID {
			continue
		}
		if other.Username == u.Username {
			return uniqueViolation("uq_users_username")
		}
		if other.Email == u.Email {
			return uniqueViolation("uq_users_email")
		}
	}
	return nil
}

func (t *tables) checkBook(b *entity.Book, selfID int64) error {
	if err := notNull("isbn", b.ISBN); err != nil {
		return err
	}
	if err := notNull("title", b.Title); err != nil {
		return err
	}
	if b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
		return checkViolation("check_available_copies")
	}
	if !b.Status.Valid() {
		return checkViolation("chk_books_status")
	}
	if b.PublicationYear != 0 &&
		(b.PublicationYear < entity.MinPublicationYear || b.PublicationYear > entity.MaxPublicationYear) {
		return checkViolation("chk_books_publication_year")
	}
	for id, other := range t.books {
		if id == selfID {
			continue
		}
		if other.ISBN == b.ISBN {
			return uniqueViolation("uq_books_isbn")
		}
	}
	return nil
}

func (t *tables) checkBorrowing(b *entity.Borrowing) error {
	if _, ok := t.users[b.UserID]; !ok {
		return fkViolation("fk_borrowings_user_id")
	}
	if _, ok := t.books[b.BookID]; !ok {
		return fkViolation("fk_borrowings_book_id")
	}
	if !b.DueDate.After(b.BorrowDate) {
		return checkViolation("chk_due_after_borrow")
	}
	if !b.Status.Valid() {
		return checkViolation("chk_borrowings_status")
	}
	return nil
}
