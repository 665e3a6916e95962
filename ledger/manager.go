package ledger

import "fmt"

// Ledger is a thin façade over the Database, keeping caller code simple.
// The presentation layer (CLI, importer) talks to this type only.
type Ledger struct {
	db *Database
}

// NewLedger opens (or creates) the SQLite database at dbPath.
func NewLedger(dbPath string, opts ...Option) (*Ledger, error) {
	db, err := NewDatabase(dbPath, opts...)
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error { return l.db.Close() }

// ------------------ Book helpers ------------------

func (l *Ledger) AddBook(id, title, author string, stock int) error {
	return l.db.AddBook(id, title, author, stock)
}

func (l *Ledger) EditBook(id, title, author string, stock int) error {
	return l.db.EditBook(id, title, author, stock)
}

func (l *Ledger) DeleteBook(id string) error            { return l.db.DeleteBook(id) }
func (l *Ledger) GetBook(id string) (*Book, error)      { return l.db.GetBook(id) }
func (l *Ledger) ListBooks() ([]*Book, error)           { return l.db.ListBooks() }
func (l *Ledger) SearchBooks(q string) ([]*Book, error) { return l.db.SearchBooks(q) }

// ------------------ Member helpers ------------------

func (l *Ledger) AddMember(name string) (int64, error)   { return l.db.AddMember(name) }
func (l *Ledger) EditMember(id int64, name string) error { return l.db.EditMember(id, name) }
func (l *Ledger) DeleteMember(id int64) error            { return l.db.DeleteMember(id) }
func (l *Ledger) GetMember(id int64) (*Member, error)    { return l.db.GetMember(id) }
func (l *Ledger) ListMembers() ([]*Member, error)        { return l.db.ListMembers() }
func (l *Ledger) MemberDebt(id int64) (float64, error)   { return l.db.MemberDebt(id) }

// ------------------ Circulation ------------------

func (l *Ledger) IssueBook(bookID string, memberID int64) error {
	return l.db.IssueBook(bookID, memberID)
}

func (l *Ledger) ReturnBook(memberName, bookID string) error {
	return l.db.ReturnBook(memberName, bookID)
}

func (l *Ledger) ListIssuedBooks() ([]*IssuedBook, error) { return l.db.ListIssuedBooks() }

func (l *Ledger) CalculateRent(issueDate string) (float64, error) {
	return l.db.CalculateRent(issueDate)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	return fmt.Sprintf("%-10s %-30s %-25s %5d", b.ID, b.Title, b.Author, b.Stock)
}

// PrettyIssuedBook formats one open-loan row for lists.
func PrettyIssuedBook(ib *IssuedBook) string {
	return fmt.Sprintf("%-5d %-10s %-30s %-25s %-20s %-12s %8.0f",
		ib.TransactionID, ib.BookID, ib.BookTitle, ib.BookAuthor, ib.MemberName, ib.IssueDate, ib.Rent)
}
