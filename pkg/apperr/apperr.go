// Package apperr defines the error taxonomy surfaced by the lending services.
// Every failure a caller may want to pattern-match on carries a Kind; callers
// use errors.Is / KindOf instead of string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The set mirrors what the HTTP layer and API
// consumers distinguish between.
type Kind string

const (
	// KindValidation marks malformed or missing input (zero identifiers,
	// non-positive loan length, unknown enum values).
	KindValidation Kind = "validation"
	// KindNotFound marks a referenced user, book, or borrowing that does not exist.
	KindNotFound Kind = "not_found"
	// KindEligibility marks an inactive or suspended user attempting to borrow.
	KindEligibility Kind = "eligibility"
	// KindAvailability marks a book with no copies left to lend.
	KindAvailability Kind = "availability"
	// KindLimit marks a user at the maximum number of concurrent loans.
	KindLimit Kind = "limit"
	// KindConflict marks an operation on a record in the wrong state, such as
	// returning an already-returned loan.
	KindConflict Kind = "conflict"
	// KindConstraint marks a store-level integrity violation that slipped past
	// the service pre-checks: foreign key, check, unique, or not-null.
	KindConstraint Kind = "constraint"
	// KindInternal marks everything else.
	KindInternal Kind = "internal"
)

// Error is the taxonomy error type. Constraint holds the violated database
// constraint name when Kind is KindConstraint.
type Error struct {
	Kind       Kind
	Message    string
	Constraint string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is match two taxonomy errors by kind, so sentinel-style
// comparisons like errors.Is(err, apperr.New(apperr.KindLimit, "")) work.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a taxonomy error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf builds a taxonomy error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause, preserving the original driver error for inspection.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// ConstraintViolation builds a KindConstraint error naming the violated rule.
func ConstraintViolation(constraint, msg string, cause error) *Error {
	return &Error{Kind: KindConstraint, Message: msg, Constraint: constraint, Cause: cause}
}

// KindOf extracts the Kind from err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

func IsValidation(err error) bool   { return IsKind(err, KindValidation) }
func IsNotFound(err error) bool     { return IsKind(err, KindNotFound) }
func IsEligibility(err error) bool  { return IsKind(err, KindEligibility) }
func IsAvailability(err error) bool { return IsKind(err, KindAvailability) }
func IsLimit(err error) bool        { return IsKind(err, KindLimit) }
func IsConflict(err error) bool     { return IsKind(err, KindConflict) }
func IsConstraint(err error) bool   { return IsKind(err, KindConstraint) }
