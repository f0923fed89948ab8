package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindLimit, KindOf(New(KindLimit, "too many loans")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(KindAvailability, "no copies available")
	wrapped := fmt.Errorf("borrow failed: %w", inner)

	assert.Equal(t, KindAvailability, KindOf(wrapped))
	assert.True(t, IsAvailability(wrapped))
	assert.False(t, IsLimit(wrapped))
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := Newf(KindConflict, "borrowing %d already returned", 7)
	assert.True(t, errors.Is(err, New(KindConflict, "")))
	assert.False(t, errors.Is(err, New(KindNotFound, "")))
}

func TestConstraintViolation(t *testing.T) {
	cause := errors.New("driver detail")
	err := ConstraintViolation("uq_users_email", "unique violation on uq_users_email", cause)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindConstraint, e.Kind)
	assert.Equal(t, "uq_users_email", e.Constraint)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "uq_users_email")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, "query failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(err))
}
