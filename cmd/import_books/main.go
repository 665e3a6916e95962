package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"library-ledger/ledger"
)

// Bulk catalog importer: loads books from a CSV of id,title,author,stock
// rows into the ledger database. Rows that fail validation or collide with
// existing ids are reported and skipped.
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <catalog.csv>\n", os.Args[0])
		os.Exit(1)
	}
	csvPath := os.Args[1]

	dbPath := os.Getenv("LIBRARY_DB")
	if dbPath == "" {
		dbPath = "library.db"
	}

	lib, err := ledger.NewLedger(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer lib.Close()

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening catalog: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 4

	fmt.Printf("Importing books from %s...\n", csvPath)

	successCount := 0
	errorCount := 0
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			fmt.Printf("line %d: ERROR - %v\n", line, err)
			errorCount++
			continue
		}

		// Tolerate a header row.
		if line == 1 && strings.EqualFold(record[0], "id") {
			continue
		}

		id, title, author := record[0], record[1], record[2]
		stock, err := strconv.Atoi(strings.TrimSpace(record[3]))
		if err != nil {
			fmt.Printf("line %d: ERROR - stock must be an integer: %v\n", line, err)
			errorCount++
			continue
		}

		fmt.Printf("Importing: %s by %s... ", title, author)
		if err := lib.AddBook(id, title, author, stock); err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Printf("SUCCESS (ID: %s)\n", id)
		successCount++
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Println("\nCatalog:")
		books, err := lib.ListBooks()
		if err != nil {
			fmt.Printf("Error retrieving books: %v\n", err)
			return
		}
		fmt.Printf("%-10s %-50s %-30s %5s\n", "ID", "Title", "Author", "Stock")
		fmt.Println(strings.Repeat("-", 97))
		for _, book := range books {
			fmt.Printf("%-10s %-50s %-30s %5d\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30), book.Stock)
		}
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
