package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"

	"losslens/internal/core"
)

func TestWriteCSV(t *testing.T) {
	uber := core.Transaction{Date: core.NewDate(2024, 1, 15), Merchant: "Uber", Category: "Transport", Amount: core.Money{Cents: 2000}}
	if err := uber.Rate(1); err != nil {
		t.Fatal(err)
	}
	pending := core.Transaction{Date: core.NewDate(2024, 2, 3), Merchant: "Netflix", Category: "Entertainment", Amount: core.Money{Cents: 1599}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []core.Transaction{uber, pending}); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := [][]string{
		{"Date", "Merchant", "Amount", "Category", "Happiness", "Regret"},
		{"2024-01-15", "Uber", "20.00", "Transport", "1", "16.00"},
		{"2024-02-03", "Netflix", "15.99", "Entertainment", "", ""},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "Date,Merchant,Amount,Category,Happiness,Regret\n" {
		t.Fatalf("header only expected, got %q", got)
	}
}
