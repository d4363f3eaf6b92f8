// Package export renders a session's transactions to portable outputs:
// a CSV stream and, when configured, a Google Sheets worksheet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"losslens/internal/core"
)

// Header is the column order of every exported row.
var Header = []string{"Date", "Merchant", "Amount", "Category", "Happiness", "Regret"}

// WriteCSV streams transactions in ingestion order. Unrated rows leave
// the Happiness and Regret cells empty rather than writing zeros.
func WriteCSV(w io.Writer, txns []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, tx := range txns {
		if err := cw.Write(row(tx)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(tx core.Transaction) []string {
	happiness, regret := "", ""
	if tx.Rated() {
		happiness = strconv.Itoa(tx.Happiness)
		regret = tx.Regret.String()
	}
	return []string{
		tx.Date.Format("2006-01-02"),
		tx.Merchant,
		tx.Amount.String(),
		tx.Category,
		happiness,
		regret,
	}
}
