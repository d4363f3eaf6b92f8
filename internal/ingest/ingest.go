// Package ingest parses uploaded CSV files into validated transactions.
//
// The boundary rule: a file without the required columns fails as a
// whole with ValidationError; any malformed individual row is skipped,
// reported, and never aborts the batch.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"losslens/internal/core"
)

// Required header columns, matched case-insensitively. Category and
// Happiness are optional so an exported file can be re-imported.
var requiredColumns = []string{"date", "merchant", "amount"}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
}

// ValidationError reports required columns missing from the header.
// It is fatal for the whole upload.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// RowError describes one skipped row. Line is 1-based and counts the
// header.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Result carries the accepted transactions in input order and the
// report of skipped rows.
type Result struct {
	Transactions []core.Transaction
	Skipped      []RowError
}

// ReadCSV parses the upload. It returns a *ValidationError when the
// header lacks Date, Merchant or Amount; row-level problems only land
// in Result.Skipped.
func ReadCSV(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ValidationError{Missing: requiredColumns}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, want := range requiredColumns {
		if _, ok := cols[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	res := &Result{}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Reason: "malformed CSV row"})
			continue
		}

		tx, reason := parseRow(record, cols)
		if reason != "" {
			res.Skipped = append(res.Skipped, RowError{Line: line, Reason: reason})
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res, nil
}

func parseRow(record []string, cols map[string]int) (core.Transaction, string) {
	var tx core.Transaction

	rawDate := field(record, cols, "date")
	date, ok := parseDate(rawDate)
	if !ok {
		return tx, fmt.Sprintf("unparseable date %q", rawDate)
	}
	tx.Date = date

	tx.Merchant = strings.TrimSpace(field(record, cols, "merchant"))
	if tx.Merchant == "" {
		return tx, "empty merchant"
	}

	rawAmount := field(record, cols, "amount")
	cents, err := core.ParseAmountToCents(rawAmount)
	if err != nil {
		if errors.Is(err, core.ErrNegativeAmount) {
			return tx, fmt.Sprintf("negative amount %q", rawAmount)
		}
		return tx, fmt.Sprintf("non-numeric amount %q", rawAmount)
	}
	tx.Amount = core.Money{Cents: cents}

	// Optional columns: empty means "not yet", anything present must be
	// valid; the skip rule applies to them like every other field.
	if raw := strings.TrimSpace(field(record, cols, "category")); raw != "" {
		tx.Category = raw
	}
	if raw := strings.TrimSpace(field(record, cols, "happiness")); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h < core.HappinessMin || h > core.HappinessMax {
			return tx, fmt.Sprintf("happiness %q not in 1-5", raw)
		}
		if err := tx.Rate(h); err != nil {
			return tx, err.Error()
		}
	}

	return tx, ""
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func parseDate(s string) (core.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: ts}, true
		}
	}
	return core.Date{}, false
}
