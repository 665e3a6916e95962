package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageErrorWrapping(t *testing.T) {
	cause := errors.New("database is locked")
	err := storageErr("insert book", cause)

	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert book")

	// Still recognizable through further wrapping.
	wrapped := fmt.Errorf("issue failed: %w", err)
	assert.True(t, IsStorage(wrapped))
}

func TestBusinessErrorsAreNotStorageErrors(t *testing.T) {
	for _, err := range []error{
		ErrInvalidBookID, ErrDuplicateBook, ErrBookNotFound, ErrMemberNotFound,
		ErrBookNotAvailable, ErrDebtLimitExceeded, ErrBookHasOpenLoans,
		ErrMemberHasOpenLoans, ErrNothingPending,
	} {
		assert.False(t, IsStorage(err), "%v", err)
	}
}
