package predict

import (
	"reflect"
	"testing"

	"losslens/internal/core"
)

func rated(t *testing.T, merchant, category string, cents int64, happiness int) core.Transaction {
	t.Helper()
	tx := core.Transaction{Date: core.NewDate(2024, 1, 1), Merchant: merchant, Category: category, Amount: core.Money{Cents: cents}}
	if err := tx.Rate(happiness); err != nil {
		t.Fatalf("rate %s: %v", merchant, err)
	}
	return tx
}

func TestEstimateRegretMerchantHistoryFirst(t *testing.T) {
	txns := []core.Transaction{
		rated(t, "Uber", "Transport", 2000, 1),  // ratio 0.8
		rated(t, "Lyft", "Transport", 1000, 5),  // ratio 0
		rated(t, "Amazon", "Shopping", 5000, 3), // ratio 0.4
	}
	est := EstimateRegret(txns, "Uber", "Transport", core.Money{Cents: 1000}, 3)
	if est.Method != MethodMerchantHistory {
		t.Fatalf("method = %s, want merchant_history", est.Method)
	}
	if est.Regret.Cents != 800 {
		t.Fatalf("regret = %d, want 800 (0.8 ratio)", est.Regret.Cents)
	}
	if est.Percent != 80 {
		t.Fatalf("percent = %v, want 80", est.Percent)
	}
}

func TestEstimateRegretFallbackChain(t *testing.T) {
	txns := []core.Transaction{
		rated(t, "Uber", "Transport", 2000, 1), // Transport ratio 0.8
		rated(t, "Amazon", "Shopping", 1000, 5),
	}

	byCategory := EstimateRegret(txns, "Lyft", "Transport", core.Money{Cents: 1000}, 3)
	if byCategory.Method != MethodCategoryHistory || byCategory.Regret.Cents != 800 {
		t.Fatalf("category fallback = %+v", byCategory)
	}

	// Overall ratio: 1600 regret / 3000 spend.
	overall := EstimateRegret(txns, "New Place", "Dining", core.Money{Cents: 3000}, 3)
	if overall.Method != MethodOverallHistory || overall.Regret.Cents != 1600 {
		t.Fatalf("overall fallback = %+v", overall)
	}

	// No history at all: happiness proxy.
	proxy := EstimateRegret(nil, "New Place", "Dining", core.Money{Cents: 1000}, 2)
	if proxy.Method != MethodHappinessProxy || proxy.Regret.Cents != 600 {
		t.Fatalf("proxy fallback = %+v", proxy)
	}
}

func TestEstimateRegretDeterministic(t *testing.T) {
	txns := []core.Transaction{
		rated(t, "Uber", "Transport", 2000, 2),
		rated(t, "Uber", "Transport", 3000, 1),
	}
	a := EstimateRegret(txns, "Uber", "Transport", core.Money{Cents: 2500}, 3)
	b := EstimateRegret(txns, "Uber", "Transport", core.Money{Cents: 2500}, 3)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("estimates differ: %+v vs %+v", a, b)
	}
}

func TestEstimateRegretIgnoresUnrated(t *testing.T) {
	txns := []core.Transaction{
		{Date: core.NewDate(2024, 1, 1), Merchant: "Uber", Category: "Transport", Amount: core.Money{Cents: 9000}},
	}
	est := EstimateRegret(txns, "Uber", "Transport", core.Money{Cents: 1000}, 4)
	if est.Method != MethodHappinessProxy {
		t.Fatalf("unrated history should not count, method = %s", est.Method)
	}
	if est.Regret.Cents != 200 {
		t.Fatalf("regret = %d, want 200", est.Regret.Cents)
	}
}

func TestHotspotsRanking(t *testing.T) {
	txns := []core.Transaction{
		rated(t, "Uber", "Transport", 2000, 1),
		rated(t, "Uber", "Transport", 2200, 1),
		rated(t, "Netflix", "Entertainment", 1500, 5),
		rated(t, "Amazon", "Shopping", 8000, 2),
	}
	merchants, categories := Hotspots(txns, 2)

	if len(merchants) != 2 {
		t.Fatalf("merchants = %d, want 2", len(merchants))
	}
	// Amazon: 8000 at ratio 0.6 predicts 4800; Uber median 2100 at 0.8
	// predicts 1680.
	if merchants[0].Name != "Amazon" || merchants[1].Name != "Uber" {
		t.Fatalf("merchant order = %s, %s", merchants[0].Name, merchants[1].Name)
	}
	if merchants[1].Count != 2 {
		t.Fatalf("Uber count = %d, want 2", merchants[1].Count)
	}

	if len(categories) != 2 || categories[0].Name != "Shopping" {
		t.Fatalf("categories = %+v", categories)
	}
}

func TestHotspotsEmptyInput(t *testing.T) {
	merchants, categories := Hotspots(nil, 5)
	if len(merchants) != 0 || len(categories) != 0 {
		t.Fatal("expected no hotspots for empty input")
	}
}
