package peer

import (
	"errors"
	"strings"
	"testing"

	"losslens/internal/core"
)

func tx(t *testing.T, year, month, day int, category string, cents int64, happiness int) core.Transaction {
	t.Helper()
	out := core.Transaction{
		Date:     core.NewDate(year, month, day),
		Merchant: "m",
		Category: category,
		Amount:   core.Money{Cents: cents},
	}
	if happiness > 0 {
		if err := out.Rate(happiness); err != nil {
			t.Fatal(err)
		}
	}
	return out
}

func TestCompareAveragesMonthlySpend(t *testing.T) {
	txns := []core.Transaction{
		tx(t, 2024, 1, 10, "Dining", 30000, 0),
		tx(t, 2024, 2, 10, "Dining", 18000, 0),
	}
	cmp, err := Compare(txns, "student")
	if err != nil {
		t.Fatal(err)
	}

	var dining Row
	for _, r := range cmp.Rows {
		if r.Category == "Dining" {
			dining = r
		}
	}
	if dining.UserMonthlySpend.Cents != 24000 {
		t.Fatalf("avg monthly spend = %d, want 24000", dining.UserMonthlySpend.Cents)
	}
	// $240/mo against the $120 baseline is exactly twice.
	if !dining.HasSpendDiff || dining.SpendDiffPercent != 100 {
		t.Fatalf("spend diff = %v (has=%v), want 100", dining.SpendDiffPercent, dining.HasSpendDiff)
	}

	want := "You spend 100% more than a typical student on Dining."
	if !contains(cmp.Sentences, want) {
		t.Fatalf("sentences %v missing %q", cmp.Sentences, want)
	}
}

func TestCompareFlagsHighRegretRate(t *testing.T) {
	// $20 spent, rated 1: regret $16, ratio 0.8 against the 0.10
	// Transport baseline, a 700% difference.
	cmp, err := Compare([]core.Transaction{tx(t, 2024, 1, 5, "Transport", 2000, 1)}, "student")
	if err != nil {
		t.Fatal(err)
	}

	want := "You regret Transport purchases about 700% more than peers."
	if !contains(cmp.Sentences, want) {
		t.Fatalf("sentences %v missing %q", cmp.Sentences, want)
	}
}

func TestCompareUnratedSpendHasNoRegretDiff(t *testing.T) {
	cmp, err := Compare([]core.Transaction{tx(t, 2024, 1, 5, "Transport", 2000, 0)}, "student")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range cmp.Rows {
		if r.Category == "Transport" && r.HasRegretDiff {
			t.Fatal("unrated spend should not produce a regret-rate diff")
		}
	}
	for _, s := range cmp.Sentences {
		if strings.Contains(s, "regret Transport") {
			t.Fatalf("unexpected regret sentence: %q", s)
		}
	}
}

func TestCompareUnknownProfile(t *testing.T) {
	if _, err := Compare(nil, "astronaut"); !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("err = %v, want ErrUnknownProfile", err)
	}
}

func TestCompareEmptyLooksSimilar(t *testing.T) {
	cmp, err := Compare(nil, DefaultProfile)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmp.Sentences) != 1 || !strings.Contains(cmp.Sentences[0], "looks similar") {
		t.Fatalf("sentences = %v", cmp.Sentences)
	}
	// Baseline categories still show up so the table is never empty.
	if len(cmp.Rows) != len(cmp.Profile.Benchmarks) {
		t.Fatalf("rows = %d, want %d", len(cmp.Rows), len(cmp.Profile.Benchmarks))
	}
}

func TestCompareOrdersByUserSpend(t *testing.T) {
	txns := []core.Transaction{
		tx(t, 2024, 1, 1, "Transport", 1000, 0),
		tx(t, 2024, 1, 2, "Shopping", 90000, 0),
	}
	cmp, err := Compare(txns, "family")
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Rows[0].Category != "Shopping" {
		t.Fatalf("first row = %q, want Shopping", cmp.Rows[0].Category)
	}
}

func TestProfilesListedInDisplayOrder(t *testing.T) {
	got := Profiles()
	if len(got) != 3 || got[0].Key != DefaultProfile {
		t.Fatalf("profiles = %v", got)
	}
	for _, p := range got {
		if len(p.Benchmarks) == 0 {
			t.Fatalf("profile %s has no benchmarks", p.Key)
		}
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
