package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perpusgo/lending-api/internal/domain/entity"
	"github.com/perpusgo/lending-api/pkg/apperr"
)

func TestBookCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		f := newLendingFixture(t)
		b, err := f.bookSvc.Create(ctx, CreateBookInput{
			ISBN:            "9780134190440",
			Title:           "The Go Programming Language",
			PublicationYear: 2015,
			TotalCopies:     3,
			AvailableCopies: 3,
			Price:           450000,
		})
		require.NoError(t, err)
		assert.NotZero(t, b.ID)
		assert.Equal(t, entity.BookAvailable, b.Status)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newLendingFixture(t)
		for _, tc := range []struct {
			name string
			in   CreateBookInput
		}{
			{"missing isbn", CreateBookInput{Title: "T", TotalCopies: 1, AvailableCopies: 1}},
			{"missing title", CreateBookInput{ISBN: "x", TotalCopies: 1, AvailableCopies: 1}},
			{"available over total", CreateBookInput{ISBN: "x", Title: "T", TotalCopies: 1, AvailableCopies: 2}},
			{"year before print", CreateBookInput{ISBN: "x", Title: "T", TotalCopies: 1, AvailableCopies: 1, PublicationYear: 1449}},
			{"year in far future", CreateBookInput{ISBN: "x", Title: "T", TotalCopies: 1, AvailableCopies: 1, PublicationYear: 2101}},
		} {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.bookSvc.Create(ctx, tc.in)
				assert.True(t, apperr.IsValidation(err), "got %v", err)
			})
		}
	})

	t.Run("duplicate isbn is a constraint violation", func(t *testing.T) {
		f := newLendingFixture(t)
		in := CreateBookInput{ISBN: "dup", Title: "T", TotalCopies: 1, AvailableCopies: 1}
		_, err := f.bookSvc.Create(ctx, in)
		require.NoError(t, err)
		_, err = f.bookSvc.Create(ctx, in)
		assert.True(t, apperr.IsConstraint(err))
	})
}

func TestBookGetAndUpdate(t *testing.T) {
	ctx := context.Background()
	f := newLendingFixture(t)
	seeded := f.seedBook(t, 2)

	got, err := f.bookSvc.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ISBN, got.ISBN)

	_, err = f.bookSvc.Get(ctx, 999)
	assert.True(t, apperr.IsNotFound(err))

	updated, err := f.bookSvc.Update(ctx, seeded.ID, UpdateBookInput{
		Title:  "Renamed",
		Status: entity.BookUnavailable,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, entity.BookUnavailable, updated.Status)
	assert.Equal(t, seeded.ISBN, updated.ISBN)

	_, err = f.bookSvc.Update(ctx, seeded.ID, UpdateBookInput{Status: "lost"})
	assert.True(t, apperr.IsValidation(err))
}

func TestSetAvailableCopies(t *testing.T) {
	ctx := context.Background()
	f := newLendingFixture(t)
	b := f.seedBook(t, 3)

	require.NoError(t, f.bookSvc.SetAvailableCopies(ctx, b.ID, 1))
	assert.Equal(t, 1, f.book(t, b.ID).AvailableCopies)

	err := f.bookSvc.SetAvailableCopies(ctx, b.ID, 4)
	assert.True(t, apperr.IsValidation(err), "must not exceed total copies")

	err = f.bookSvc.SetAvailableCopies(ctx, b.ID, -1)
	assert.True(t, apperr.IsValidation(err))
}

func TestBookDelete(t *testing.T) {
	ctx := context.Background()
	f := newLendingFixture(t)
	b := f.seedBook(t, 1)

	require.NoError(t, f.bookSvc.Delete(ctx, b.ID))
	_, err := f.bookSvc.Get(ctx, b.ID)
	assert.True(t, apperr.IsNotFound(err))

	err = f.bookSvc.Delete(ctx, b.ID)
	assert.True(t, apperr.IsNotFound(err))
}
