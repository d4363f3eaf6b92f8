package core

import (
	"errors"
	"testing"
	"time"
)

func TestRegretScore(t *testing.T) {
	cases := []struct {
		cents     int64
		happiness int
		want      int64
	}{
		{2000, 1, 1600}, // 0.8 * amount
		{2000, 5, 0},    // fully satisfied
		{1500, 5, 0},
		{1000, 3, 400},
		{0, 1, 0},
		{999, 2, 599}, // 999*3/5 = 599.4 rounds down
		{999, 1, 799}, // 999*4/5 = 799.2 rounds down
		{1, 1, 1},     // 0.8 rounds up
	}
	for i, tc := range cases {
		got, err := RegretScore(Money{Cents: tc.cents}, tc.happiness)
		if err != nil {
			t.Fatalf("case %d unexpected error: %v", i, err)
		}
		if got.Cents != tc.want {
			t.Fatalf("case %d RegretScore(%d, %d) = %d, want %d",
				i, tc.cents, tc.happiness, got.Cents, tc.want)
		}
	}
}

func TestRegretScoreMonotonic(t *testing.T) {
	amount := Money{Cents: 12345}
	prev := int64(1 << 62)
	for h := HappinessMin; h <= HappinessMax; h++ {
		r, err := RegretScore(amount, h)
		if err != nil {
			t.Fatalf("happiness %d: %v", h, err)
		}
		if r.Cents > prev {
			t.Fatalf("regret increased from %d to %d at happiness %d", prev, r.Cents, h)
		}
		if r.Cents < 0 || r.Cents > amount.Cents {
			t.Fatalf("regret %d outside [0, %d]", r.Cents, amount.Cents)
		}
		prev = r.Cents
	}
}

func TestRegretScoreDomainErrors(t *testing.T) {
	if _, err := RegretScore(Money{Cents: 100}, 0); !errors.Is(err, ErrHappinessRange) {
		t.Fatalf("expected ErrHappinessRange, got %v", err)
	}
	if _, err := RegretScore(Money{Cents: 100}, 6); !errors.Is(err, ErrHappinessRange) {
		t.Fatalf("expected ErrHappinessRange, got %v", err)
	}
	if _, err := RegretScore(Money{Cents: -1}, 3); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestTransactionRate(t *testing.T) {
	tx := Transaction{Date: NewDate(2024, 1, 1), Merchant: "Uber", Amount: Money{Cents: 2000}}
	if tx.Rated() {
		t.Fatal("new transaction should be unrated")
	}
	if err := tx.Rate(1); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if tx.Regret.Cents != 1600 {
		t.Fatalf("regret = %d, want 1600", tx.Regret.Cents)
	}

	// Changing the amount must rescore.
	if err := tx.SetAmount(Money{Cents: 1000}); err != nil {
		t.Fatalf("set amount: %v", err)
	}
	if tx.Regret.Cents != 800 {
		t.Fatalf("regret after amount change = %d, want 800", tx.Regret.Cents)
	}

	if err := tx.Rate(7); !errors.Is(err, ErrHappinessRange) {
		t.Fatalf("expected ErrHappinessRange, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Date: NewDate(2024, 1, 1), Merchant: "Uber", Amount: Money{Cents: 100}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{Time: time.Time{}}, Merchant: "a", Amount: Money{Cents: 1}},
		{Date: NewDate(2024, 1, 1), Merchant: "  ", Amount: Money{Cents: 1}},
		{Date: NewDate(2024, 1, 1), Merchant: "a", Amount: Money{Cents: -1}},
		{Date: NewDate(2024, 1, 1), Merchant: "a", Amount: Money{Cents: 1}, Happiness: 9},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
