package ledger

// Book represents a title in the catalog together with the count of copies
// currently available for loan.
type Book struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Stock  int    `json:"stock"`
}

// Member represents a registered library member. OutstandingDebt and
// BookFees are persisted reserved columns; no operation reads or writes
// them beyond their defaults.
type Member struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	OutstandingDebt float64 `json:"outstanding_debt"`
	BookFees        float64 `json:"book_fees"`
}

// Transaction is one loan record. ReturnDate is empty until the loan is
// closed; rows are never deleted.
type Transaction struct {
	ID         int64  `json:"id"`
	BookID     string `json:"book_id"`
	MemberID   int64  `json:"member_id"`
	IssueDate  string `json:"issue_date"`
	ReturnDate string `json:"return_date,omitempty"`
	Returned   bool   `json:"returned"`
}

// IssuedBook is one row of the open-loans listing: the transaction joined
// with its book and member, plus the rent accrued so far.
type IssuedBook struct {
	TransactionID int64   `json:"transaction_id"`
	BookID        string  `json:"book_id"`
	BookTitle     string  `json:"book_title"`
	BookAuthor    string  `json:"book_author"`
	MemberName    string  `json:"member_name"`
	IssueDate     string  `json:"issue_date"`
	Rent          float64 `json:"rent"`
}
