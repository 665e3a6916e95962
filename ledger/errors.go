package ledger

import (
	"errors"
	"fmt"
)

// Business-rule rejections. All of them leave state unchanged and are safe
// to show to the caller verbatim.
var (
	// ErrInvalidBookID rejects a book identifier that is not alphanumeric.
	ErrInvalidBookID = errors.New("book id must be alphanumeric")

	// ErrDuplicateBook rejects adding a book whose id already exists.
	ErrDuplicateBook = errors.New("book id already exists")

	// ErrBookNotFound is returned when a book lookup matches nothing.
	ErrBookNotFound = errors.New("book not found")

	// ErrMemberNotFound is returned when a member lookup matches nothing.
	ErrMemberNotFound = errors.New("member not found")

	// ErrBookNotAvailable rejects issuing a book that is absent or has no
	// stock left.
	ErrBookNotAvailable = errors.New("book not available in stock")

	// ErrDebtLimitExceeded rejects issuing to a member whose fees for
	// returned loans have reached the debt limit.
	ErrDebtLimitExceeded = errors.New("member has outstanding debt")

	// ErrBookHasOpenLoans blocks deleting a book while copies are out.
	ErrBookHasOpenLoans = errors.New("book has open loans")

	// ErrMemberHasOpenLoans blocks deleting a member holding books.
	ErrMemberHasOpenLoans = errors.New("member has open loans")

	// ErrNothingPending reports that a return matched no open loan. It is
	// an informational outcome, not a failure: nothing was changed.
	ErrNothingPending = errors.New("no pending loan for this member and book")
)

// StorageError wraps failures coming from the database itself (driver,
// connectivity, constraints) so callers can tell infrastructure problems
// apart from business-rule rejections.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err originated in the storage layer.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
