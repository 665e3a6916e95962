package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // goqu dialect
	_ "github.com/mattn/go-sqlite3"                    // sqlite driver
	"github.com/sirupsen/logrus"
)

// Database provides high-level helpers around a SQLite connection. Issue
// and return run their read-check-write sequences inside one database
// transaction each; everything else is single-row or small-join queries.
type Database struct {
	db *sql.DB

	now        func() time.Time
	ratePerDay float64
	debtLimit  float64
	log        logrus.FieldLogger

	addBookStmt   *sql.Stmt
	addMemberStmt *sql.Stmt
}

var dialect = goqu.Dialect("sqlite3")

var bookIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// NewDatabase opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares common statements.
func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, storageErr("open sqlite", err)
	}

	database := &Database{
		db:         db,
		now:        time.Now,
		ratePerDay: DefaultRatePerDay,
		debtLimit:  DefaultDebtLimit,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if err := opt(database); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := applyMigrations(db, database.log); err != nil {
		db.Close()
		return nil, err
	}

	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.addMemberStmt != nil {
		d.addMemberStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB, log logrus.FieldLogger) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return storageErr("enable WAL", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return storageErr("create meta table", err)
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return storageErr("begin migration", err)
	}
	defer tx.Rollback()

	// The transaction log deliberately carries no foreign keys: it is an
	// append-only history that may outlive the book or member it names.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            stock INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            outstanding_debt REAL NOT NULL DEFAULT 0,
            book_fees REAL NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS transactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id TEXT NOT NULL,
            member_id INTEGER NOT NULL,
            issue_date TEXT NOT NULL,
            return_date TEXT,
            returned INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_open
            ON transactions(member_id, book_id) WHERE returned = 0;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return storageErr("apply migration", err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
		schemaVersion,
	); err != nil {
		return storageErr("record schema version", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit migration", err)
	}
	log.WithField("schema_version", schemaVersion).Info("ledger schema up to date")
	return nil
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(id,title,author,stock) VALUES(?,?,?,?)`); err != nil {
		return storageErr("prepare add book", err)
	}
	if d.addMemberStmt, err = d.db.Prepare(`INSERT INTO members(name) VALUES(?)`); err != nil {
		return storageErr("prepare add member", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// AddBook inserts a new catalog entry. The id must be alphanumeric and
// unique; stock is stored as given.
func (d *Database) AddBook(id, title, author string, stock int) error {
	if !bookIDPattern.MatchString(id) {
		return ErrInvalidBookID
	}
	if _, err := d.addBookStmt.Exec(id, title, author, stock); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			d.log.WithField("book", id).Debug("add book rejected: duplicate id")
			return ErrDuplicateBook
		}
		return storageErr("insert book", err)
	}
	return nil
}

// GetBook fetches a single book.
func (d *Database) GetBook(id string) (*Book, error) {
	var b Book
	err := d.db.QueryRow(`SELECT id,title,author,stock FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, storageErr("select book", err)
	}
	return &b, nil
}

// EditBook overwrites the title, author and stock of an existing book.
func (d *Database) EditBook(id, title, author string, stock int) error {
	res, err := d.db.Exec(`UPDATE books SET title=?, author=?, stock=? WHERE id=?`, title, author, stock, id)
	if err != nil {
		return storageErr("update book", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("update book", err)
	} else if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// DeleteBook removes a book. Books with copies still out stay put.
func (d *Database) DeleteBook(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return storageErr("begin delete book", err)
	}
	defer tx.Rollback()

	var open bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM transactions WHERE book_id=? AND returned=0)`, id).Scan(&open); err != nil {
		return storageErr("check open loans", err)
	}
	if open {
		d.log.WithField("book", id).Debug("delete book rejected: open loans")
		return ErrBookHasOpenLoans
	}

	res, err := tx.Exec(`DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return storageErr("delete book", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("delete book", err)
	} else if n == 0 {
		return ErrBookNotFound
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit delete book", err)
	}
	return nil
}

// ListBooks returns the whole catalog ordered by id.
func (d *Database) ListBooks() ([]*Book, error) {
	query, args, err := dialect.From("books").
		Select("id", "title", "author", "stock").
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, storageErr("build list books", err)
	}
	return d.queryBooks(query, args...)
}

// SearchBooks returns books whose title or author contains the keyword.
func (d *Database) SearchBooks(keyword string) ([]*Book, error) {
	pattern := "%" + keyword + "%"
	query, args, err := dialect.From("books").
		Select("id", "title", "author", "stock").
		Where(goqu.Or(
			goqu.C("title").Like(pattern),
			goqu.C("author").Like(pattern),
		)).
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, storageErr("build search books", err)
	}
	return d.queryBooks(query, args...)
}

func (d *Database) queryBooks(query string, args ...interface{}) ([]*Book, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query books", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Stock); err != nil {
			return nil, storageErr("scan book", err)
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate books", err)
	}
	return books, nil
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// AddMember registers a member and returns the assigned id.
func (d *Database) AddMember(name string) (int64, error) {
	res, err := d.addMemberStmt.Exec(name)
	if err != nil {
		return 0, storageErr("insert member", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert member", err)
	}
	return id, nil
}

// GetMember fetches a single member.
func (d *Database) GetMember(id int64) (*Member, error) {
	var m Member
	err := d.db.QueryRow(`SELECT id,name,outstanding_debt,book_fees FROM members WHERE id=?`, id).
		Scan(&m.ID, &m.Name, &m.OutstandingDebt, &m.BookFees)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, storageErr("select member", err)
	}
	return &m, nil
}

// EditMember renames a member.
func (d *Database) EditMember(id int64, name string) error {
	res, err := d.db.Exec(`UPDATE members SET name=? WHERE id=?`, name, id)
	if err != nil {
		return storageErr("update member", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("update member", err)
	} else if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// DeleteMember removes a member unless they still hold books.
func (d *Database) DeleteMember(id int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return storageErr("begin delete member", err)
	}
	defer tx.Rollback()

	var open bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM transactions WHERE member_id=? AND returned=0)`, id).Scan(&open); err != nil {
		return storageErr("check open loans", err)
	}
	if open {
		d.log.WithField("member", id).Debug("delete member rejected: open loans")
		return ErrMemberHasOpenLoans
	}

	res, err := tx.Exec(`DELETE FROM members WHERE id=?`, id)
	if err != nil {
		return storageErr("delete member", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("delete member", err)
	} else if n == 0 {
		return ErrMemberNotFound
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit delete member", err)
	}
	return nil
}

// ListMembers returns all members ordered by id.
func (d *Database) ListMembers() ([]*Member, error) {
	query, args, err := dialect.From("members").
		Select("id", "name", "outstanding_debt", "book_fees").
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, storageErr("build list members", err)
	}
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query members", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.OutstandingDebt, &m.BookFees); err != nil {
			return nil, storageErr("scan member", err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate members", err)
	}
	return members, nil
}

// ---------------------------------------------------------------------------
// Debt
// ---------------------------------------------------------------------------

type rowQuerier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// MemberDebt sums the rental fees of a member's returned loans. Open loans
// contribute nothing until they are returned; this is the figure the
// issuance cap is checked against.
func (d *Database) MemberDebt(memberID int64) (float64, error) {
	return d.memberDebt(d.db, memberID)
}

func (d *Database) memberDebt(q rowQuerier, memberID int64) (float64, error) {
	var debt float64
	err := q.QueryRow(
		`SELECT COALESCE(SUM(returned * (julianday(return_date) - julianday(issue_date)) * ?), 0)
         FROM transactions WHERE member_id = ?`,
		d.ratePerDay, memberID,
	).Scan(&debt)
	if err != nil {
		return 0, storageErr("sum member debt", err)
	}
	return debt, nil
}

// ---------------------------------------------------------------------------
// Circulation
// ---------------------------------------------------------------------------

// IssueBook lends one copy of a book to a member: records an open
// transaction dated today and decrements stock, all in one transaction.
// Rejected when the book is absent or out of stock, the member is unknown,
// or the member's returned-loan fees have reached the debt limit.
func (d *Database) IssueBook(bookID string, memberID int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return storageErr("begin issue", err)
	}
	defer tx.Rollback()

	var stock int
	err = tx.QueryRow(`SELECT stock FROM books WHERE id=?`, bookID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookNotAvailable
	}
	if err != nil {
		return storageErr("select stock", err)
	}
	if stock == 0 {
		d.log.WithField("book", bookID).Debug("issue rejected: no stock")
		return ErrBookNotAvailable
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM members WHERE id=?)`, memberID).Scan(&exists); err != nil {
		return storageErr("check member", err)
	}
	if !exists {
		return ErrMemberNotFound
	}

	debt, err := d.memberDebt(tx, memberID)
	if err != nil {
		return err
	}
	if debt >= d.debtLimit {
		d.log.WithFields(logrus.Fields{"member": memberID, "debt": debt}).
			Debug("issue rejected: debt limit reached")
		return ErrDebtLimitExceeded
	}

	if _, err := tx.Exec(
		`INSERT INTO transactions (book_id, member_id, issue_date, returned) VALUES (?, ?, ?, 0)`,
		bookID, memberID, d.today(),
	); err != nil {
		return storageErr("insert transaction", err)
	}

	// Guarded decrement: two concurrent issuances may both read stock > 0,
	// only one may take the last copy.
	res, err := tx.Exec(`UPDATE books SET stock = stock - 1 WHERE id=? AND stock > 0`, bookID)
	if err != nil {
		return storageErr("decrement stock", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("decrement stock", err)
	} else if n == 0 {
		return ErrBookNotAvailable
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit issue", err)
	}
	return nil
}

// ReturnBook closes the member's oldest open loan of the given book and
// restores one copy to stock, in one transaction. The member is resolved
// by name, as the return desk works from the borrower register. A return
// matching no open loan reports ErrNothingPending and changes nothing.
func (d *Database) ReturnBook(memberName, bookID string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return storageErr("begin return", err)
	}
	defer tx.Rollback()

	var memberID int64
	err = tx.QueryRow(`SELECT id FROM members WHERE name=?`, memberName).Scan(&memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMemberNotFound
	}
	if err != nil {
		return storageErr("resolve member", err)
	}

	res, err := tx.Exec(
		`UPDATE transactions SET returned = 1, return_date = ?
         WHERE id = (SELECT id FROM transactions
                     WHERE member_id = ? AND book_id = ? AND returned = 0
                     ORDER BY id LIMIT 1)`,
		d.today(), memberID, bookID,
	)
	if err != nil {
		return storageErr("close transaction", err)
	}
	closed, err := res.RowsAffected()
	if err != nil {
		return storageErr("close transaction", err)
	}
	if closed == 0 {
		d.log.WithFields(logrus.Fields{"member": memberName, "book": bookID}).
			Debug("return matched no open loan")
		return ErrNothingPending
	}

	if _, err := tx.Exec(`UPDATE books SET stock = stock + 1 WHERE id=?`, bookID); err != nil {
		return storageErr("increment stock", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit return", err)
	}
	return nil
}

// ListIssuedBooks joins open transactions with their books and members and
// attaches the rent accrued so far.
func (d *Database) ListIssuedBooks() ([]*IssuedBook, error) {
	query, args, err := dialect.From(goqu.T("transactions").As("t")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("t.book_id")))).
		Join(goqu.T("members").As("m"), goqu.On(goqu.I("m.id").Eq(goqu.I("t.member_id")))).
		Select(goqu.I("t.id"), goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"),
			goqu.I("m.name"), goqu.I("t.issue_date")).
		Where(goqu.I("t.returned").Eq(0)).
		Order(goqu.I("t.id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, storageErr("build issued books", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query issued books", err)
	}
	defer rows.Close()

	var issued []*IssuedBook
	for rows.Next() {
		var ib IssuedBook
		if err := rows.Scan(&ib.TransactionID, &ib.BookID, &ib.BookTitle, &ib.BookAuthor,
			&ib.MemberName, &ib.IssueDate); err != nil {
			return nil, storageErr("scan issued book", err)
		}
		if ib.Rent, err = d.CalculateRent(ib.IssueDate); err != nil {
			return nil, err
		}
		issued = append(issued, &ib)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate issued books", err)
	}
	return issued, nil
}

// OpenLoanCount reports how many copies are currently out for a book.
func (d *Database) OpenLoanCount(bookID string) (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE book_id=? AND returned=0`, bookID).Scan(&n)
	if err != nil {
		return 0, storageErr("count open loans", err)
	}
	return n, nil
}
