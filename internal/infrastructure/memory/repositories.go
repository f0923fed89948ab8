package memory

import (
	"context"
	"sort"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	"github.com/perpusgo/lending-api/pkg/apperr"
)

type userTable Store
type bookTable Store
type borrowingTable Store

// users

func (r *userTable) Create(ctx context.Context, u *entity.User) error {
	s := (*Store)(r)
	return s.run(ctx, func(t *tables) error {
		if err := t.checkUser(u, 0); err != nil {
			return err
		}
		u.ID = t.nextUserID
		t.nextUserID++
		u.CreatedAt = s.now()
		u.UpdatedAt = u.CreatedAt
		t.users[u.ID] = copyUser(u)
		return nil
	})
}

func (r *userTable) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	s := (*Store)(r)
	var out *entity.User
	err := s.run(ctx, func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return apperr.New(apperr.KindNotFound, "user not found")
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (r *userTable) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findBy(ctx, func(u *entity.User) bool { return u.Username == username })
}

func (r *userTable) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findBy(ctx, func(u *entity.User) bool { return u.Email == email })
}

func (r *userTable) findBy(ctx context.Context, match func(*entity.User) bool) (*entity.User, error) {
	s := (*Store)(r)
	var out *entity.User
	err := s.run(ctx, func(t *tables) error {
		for _, u := range t.users {
			if match(u) {
				out = copyUser(u)
				return nil
			}
		}
		return apperr.New(apperr.KindNotFound, "user not found")
	})
	return out, err
}

func (r *userTable) Update(ctx context.Context, u *entity.User) error {
	s := (*Store)(r)
	return s.run(ctx, func(t *tables) error {
		cur, ok := t.users[u.ID]
		if !ok {
			return apperr.New(apperr.KindNotFound, "user not found")
		}
		if err := t.checkUser(u, u.ID); err != nil {
			return err
		}
		u.CreatedAt = cur.CreatedAt
		u.UpdatedAt = s.now() // trigger emulation
		t.users[u.ID] = copyUser(u)
		return nil
	})
}

func (r *userTable) Delete(ctx context.Context, id int64) (bool, error) {
	s := (*Store)(r)
	deleted := false
	err := s.run(ctx, func(t *tables) error {
		if _, ok := t.users[id]; !ok {
			return nil
		}
		// fk_borrowings_user_id ON DELETE CASCADE
		for bid, b := range t.borrowings {
			if b.UserID == id {
				delete(t.borrowings, bid)
			}
		}
		delete(t.users, id)
		deleted = true
		return nil
	})
	return deleted, err
}

// books

func (r *bookTable) Create(ctx context.Context, b *entity.Book) error {
	s := (*Store)(r)
	return s.run(ctx, func(t *tables) error {
		if err := t.checkBook(b, 0); err != nil {
			return err
		}
		b.ID = t.nextBookID
		t.nextBookID++
		b.CreatedAt = s.now()
		b.UpdatedAt = b.CreatedAt
		t.books[b.ID] = copyBook(b)
		return nil
	})
}

func (r *bookTable) FindByID(ctx context.Context, id int64) (*entity.Book, error) {
	s := (*Store)(r)
	var out *entity.Book
	err := s.run(ctx, func(t *tables) error {
		b, ok := t.books[id]
		if !ok {
			return apperr.New(apperr.KindNotFound, "book not found")
		}
		out = copyBook(b)
		return nil
	})
	return out, err
}

func (r *bookTable) Update(ctx context.Context, b *entity.Book) error {
	s := (*Store)(r)
	return s.run(ctx, func(t *tables) error {
		cur, ok := t.books[b.ID]
		if !ok {
			return apperr.New(apperr.KindNotFound, "book not found")
		}
		if err := t.checkBook(b, b.ID); err != nil {
			return err
		}
		b.CreatedAt = cur.CreatedAt
		b.UpdatedAt = s.now()
		t.books[b.ID] = copyBook(b)
		return nil
	})
}

func (r *bookTable) SetAvailableCopies(ctx context.Context, id int64, copies int) error {
	s := (*Store)(r)
	return s.run(ctx, func(t *tables) error {
		b, ok := t.books[id]
		if !ok {
			return apperr.New(apperr.KindNotFound, "book not found")
		}
		if copies < 0 || copies > b.TotalCopies {
			return checkViolation("check_available_copies")
		}
		b.AvailableCopies = copies
		b.UpdatedAt = s.now()
		return nil
	})
}

func (r *bookTable) DecrementAvailable(ctx context.Context, id int64) (bool, error) {
	s := (*Store)(r)
	decremented := false
	err := s.run(ctx, func(t *tables) error {
		b, ok := t.books[id]
		if !ok || b.AvailableCopies <= 0 {
			return nil
		}
		b.AvailableCopies--
		b.UpdatedAt = s.now()
		decremented = true
		return nil
	})
	return decremented, err
}

func (r *bookTable) IncrementAvailable(ctx context.Context, id int64) error {
	s := (*Store)(r)
	return s.run(ctx, func(t *tables) error {
		b, ok := t.books[id]
		if !ok {
			return apperr.New(apperr.KindNotFound, "book not found")
		}
		if b.AvailableCopies+1 > b.TotalCopies {
			return checkViolation("check_available_copies")
		}
		b.AvailableCopies++
		b.UpdatedAt = s.now()
		return nil
	})
}

func (r *bookTable) Delete(ctx context.Context, id int64) (bool, error) {
	s := (*Store)(r)
	deleted := false
	err := s.run(ctx, func(t *tables) error {
		if _, ok := t.books[id]; !ok {
			return nil
		}
		// fk_borrowings_book_id ON DELETE CASCADE
		for bid, b := range t.borrowings {
			if b.BookID == id {
				delete(t.borrowings, bid)
			}
		}
		delete(t.books, id)
		deleted = true
		return nil
	})
	return deleted, err
}

// borrowings

func (r *borrowingTable) Create(ctx context.Context, b *entity.Borrowing) error {
	s := (*Store)(r)
	return s.run(ctx, func(t *tables) error {
		if b.BorrowDate.IsZero() {
			b.BorrowDate = s.now()
		}
		if err := t.checkBorrowing(b); err != nil {
			return err
		}
		b.ID = t.nextBorrowingID
		t.nextBorrowingID++
		b.CreatedAt = s.now()
		b.UpdatedAt = b.CreatedAt
		t.borrowings[b.ID] = copyBorrowing(b)
		return nil
	})
}

func (r *borrowingTable) FindByID(ctx context.Context, id int64) (*entity.Borrowing, error) {
	s := (*Store)(r)
	var out *entity.Borrowing
	err := s.run(ctx, func(t *tables) error {
		b, ok := t.borrowings[id]
		if !ok {
			return apperr.New(apperr.KindNotFound, "borrowing not found")
		}
		out = copyBorrowing(b)
		return nil
	})
	return out, err
}

func (r *borrowingTable) FindByUserID(ctx context.Context, userID int64) ([]*entity.Borrowing, error) {
	s := (*Store)(r)
	var out []*entity.Borrowing
	err := s.run(ctx, func(t *tables) error {
		for _, b := range t.borrowings {
			if b.UserID == userID {
				out = append(out, copyBorrowing(b))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].BorrowDate.After(out[j].BorrowDate) })
	return out, err
}

func (r *borrowingTable) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	s := (*Store)(r)
	n := 0
	err := s.run(ctx, func(t *tables) error {
		for _, b := range t.borrowings {
			if b.UserID == userID && b.Status == entity.StatusBorrowed {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *borrowingTable) Update(ctx context.Context, b *entity.Borrowing) error {
	s := (*Store)(r)
	return s.run(ctx, func(t *tables) error {
		cur, ok := t.borrowings[b.ID]
		if !ok {
			return apperr.New(apperr.KindNotFound, "borrowing not found")
		}
		if err := t.checkBorrowing(b); err != nil {
			return err
		}
		b.CreatedAt = cur.CreatedAt
		b.UpdatedAt = s.now()
		t.borrowings[b.ID] = copyBorrowing(b)
		return nil
	})
}

func (r *borrowingTable) Delete(ctx context.Context, id int64) (bool, error) {
	s := (*Store)(r)
	deleted := false
	err := s.run(ctx, func(t *tables) error {
		if _, ok := t.borrowings[id]; !ok {
			return nil
		}
		delete(t.borrowings, id)
		deleted = true
		return nil
	})
	return deleted, err
}
