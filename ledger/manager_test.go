package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	dir := t.TempDir()
	lib, err := NewLedger(filepath.Join(dir, "lib.db"), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func TestLedgerEndToEnd(t *testing.T) {
	lib := newLedger(t)

	require.NoError(t, lib.AddBook("B1", "Dune", "Herbert", 1))
	alice, err := lib.AddMember("Alice")
	require.NoError(t, err)

	require.NoError(t, lib.IssueBook("B1", alice))

	issued, err := lib.ListIssuedBooks()
	require.NoError(t, err)
	require.Len(t, issued, 1)
	assert.Equal(t, "Alice", issued[0].MemberName)

	require.NoError(t, lib.ReturnBook("Alice", "B1"))

	b, err := lib.GetBook("B1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Stock)

	debt, err := lib.MemberDebt(alice)
	require.NoError(t, err)
	assert.Zero(t, debt) // same-day return accrues nothing

	books, err := lib.SearchBooks("Herb")
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestPrettyFormatting(t *testing.T) {
	b := &Book{ID: "B1", Title: "Dune", Author: "Herbert", Stock: 2}
	assert.Contains(t, PrettyBook(b), "Dune")

	ib := &IssuedBook{TransactionID: 1, BookID: "B1", BookTitle: "Dune",
		BookAuthor: "Herbert", MemberName: "Alice", IssueDate: "2024-01-01", Rent: 30}
	line := PrettyIssuedBook(ib)
	assert.Contains(t, line, "Alice")
	assert.Contains(t, line, "2024-01-01")
}
