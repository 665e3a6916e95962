package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"library-ledger/ledger"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dbPath string
	lib    *ledger.Ledger
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func policyOptions() ([]ledger.Option, error) {
	var opts []ledger.Option
	if v := os.Getenv("LIBRARY_RATE_PER_DAY"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("LIBRARY_RATE_PER_DAY: %w", err)
		}
		opts = append(opts, ledger.WithRatePerDay(rate))
	}
	if v := os.Getenv("LIBRARY_DEBT_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("LIBRARY_DEBT_LIMIT: %w", err)
		}
		opts = append(opts, ledger.WithDebtLimit(limit))
	}
	return opts, nil
}

var rootCmd = &cobra.Command{
	Use:           "libledger",
	Short:         "Track books, members and loans in a library ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		opts, err := policyOptions()
		if err != nil {
			return err
		}
		opts = append(opts, ledger.WithLogger(logrus.StandardLogger()))
		lib, err = ledger.NewLedger(dbPath, opts...)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if lib != nil {
			return lib.Close()
		}
		return nil
	},
}

var addBookCmd = &cobra.Command{
	Use:   "add-book <id> <title> <author> <stock>",
	Short: "Add a book to the catalog",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		stock, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("stock must be an integer: %w", err)
		}
		if err := lib.AddBook(args[0], args[1], args[2], stock); err != nil {
			return err
		}
		fmt.Println("Book added successfully!")
		return nil
	},
}

var editBookCmd = &cobra.Command{
	Use:   "edit-book <id> <title> <author> <stock>",
	Short: "Overwrite a book's title, author and stock",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		stock, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("stock must be an integer: %w", err)
		}
		if err := lib.EditBook(args[0], args[1], args[2], stock); err != nil {
			return err
		}
		fmt.Println("Book updated successfully!")
		return nil
	},
}

var deleteBookCmd = &cobra.Command{
	Use:   "delete-book <id>",
	Short: "Remove a book from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := lib.DeleteBook(args[0]); err != nil {
			return err
		}
		fmt.Println("Book deleted successfully!")
		return nil
	},
}

var listBooksCmd = &cobra.Command{
	Use:   "list-books",
	Short: "List the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		books, err := lib.ListBooks()
		if err != nil {
			return err
		}
		printBooks(books)
		return nil
	},
}

var searchBooksCmd = &cobra.Command{
	Use:   "search-books <keyword>",
	Short: "Find books whose title or author contains the keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		books, err := lib.SearchBooks(args[0])
		if err != nil {
			return err
		}
		printBooks(books)
		return nil
	},
}

var addMemberCmd = &cobra.Command{
	Use:   "add-member <name>",
	Short: "Register a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := lib.AddMember(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Member added successfully! (ID: %d)\n", id)
		return nil
	},
}

var editMemberCmd = &cobra.Command{
	Use:   "edit-member <id> <name>",
	Short: "Rename a member",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("member id must be an integer: %w", err)
		}
		if err := lib.EditMember(id, args[1]); err != nil {
			return err
		}
		fmt.Println("Member updated successfully!")
		return nil
	},
}

var deleteMemberCmd = &cobra.Command{
	Use:   "delete-member <id>",
	Short: "Remove a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("member id must be an integer: %w", err)
		}
		if err := lib.DeleteMember(id); err != nil {
			return err
		}
		fmt.Println("Member deleted successfully!")
		return nil
	},
}

var listMembersCmd = &cobra.Command{
	Use:   "list-members",
	Short: "List registered members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		members, err := lib.ListMembers()
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-25s\n", "ID", "Name")
		for _, m := range members {
			fmt.Printf("%-5d %-25s\n", m.ID, m.Name)
		}
		return nil
	},
}

var issueCmd = &cobra.Command{
	Use:   "issue <book-id> <member-id>",
	Short: "Issue a book to a member",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("member id must be an integer: %w", err)
		}
		if err := lib.IssueBook(args[0], memberID); err != nil {
			return err
		}
		fmt.Println("Book issued successfully!")
		return nil
	},
}

var returnCmd = &cobra.Command{
	Use:   "return <member-name> <book-id>",
	Short: "Return a book from a member",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := lib.ReturnBook(args[0], args[1])
		if errors.Is(err, ledger.ErrNothingPending) {
			// Informational outcome, not a failure.
			fmt.Println("No such book issued to this member is pending return.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println("Book returned successfully!")
		return nil
	},
}

var issuedCmd = &cobra.Command{
	Use:   "issued",
	Short: "List open loans with the rent accrued so far",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		issued, err := lib.ListIssuedBooks()
		if err != nil {
			return err
		}
		fmt.Printf("%-5s %-10s %-30s %-25s %-20s %-12s %8s\n",
			"Txn", "Book", "Title", "Author", "Member", "Issued", "Rent")
		for _, ib := range issued {
			fmt.Println(ledger.PrettyIssuedBook(ib))
		}
		return nil
	},
}

var debtCmd = &cobra.Command{
	Use:   "debt <member-id>",
	Short: "Show a member's fees for returned loans",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		memberID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("member id must be an integer: %w", err)
		}
		if _, err := lib.GetMember(memberID); err != nil {
			return err
		}
		debt, err := lib.MemberDebt(memberID)
		if err != nil {
			return err
		}
		fmt.Printf("%.0f\n", debt)
		return nil
	},
}

func printBooks(books []*ledger.Book) {
	fmt.Printf("%-10s %-30s %-25s %5s\n", "ID", "Title", "Author", "Stock")
	for _, b := range books {
		fmt.Println(ledger.PrettyBook(b))
	}
}

func main() {
	// Do not override environment provided by the runtime.
	_ = godotenv.Load(".env")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnv("LIBRARY_DB", "library.db"), "path to the ledger database")

	rootCmd.AddCommand(
		addBookCmd, editBookCmd, deleteBookCmd, listBooksCmd, searchBooksCmd,
		addMemberCmd, editMemberCmd, deleteMemberCmd, listMembersCmd,
		issueCmd, returnCmd, issuedCmd, debtCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
