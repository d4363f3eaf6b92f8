package session

import (
	"errors"
	"testing"
	"time"

	"losslens/internal/core"
)

func sampleTxns(t *testing.T) []core.Transaction {
	t.Helper()
	return []core.Transaction{
		{Date: core.NewDate(2024, 1, 1), Merchant: "Uber", Category: "Transport", Amount: core.Money{Cents: 2000}},
		{Date: core.NewDate(2024, 1, 2), Merchant: "Netflix", Category: "Entertainment", Amount: core.Money{Cents: 1500}},
	}
}

func TestCreateAndSnapshot(t *testing.T) {
	store := NewStore(10, time.Minute)
	sess := store.Create(sampleTxns(t))
	if sess.ID == "" {
		t.Fatal("expected non-empty session id")
	}

	got, err := store.Snapshot(sess.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(got) != 2 || got[0].Merchant != "Uber" || got[1].Merchant != "Netflix" {
		t.Fatalf("snapshot out of order: %+v", got)
	}
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	store := NewStore(10, time.Minute)
	sess := store.Create(sampleTxns(t))

	first, _ := store.Snapshot(sess.ID)
	first[0].Merchant = "Mutated"

	second, _ := store.Snapshot(sess.ID)
	if second[0].Merchant != "Uber" {
		t.Fatal("snapshot mutation leaked into the store")
	}
}

func TestRateRecomputesRegret(t *testing.T) {
	store := NewStore(10, time.Minute)
	sess := store.Create(sampleTxns(t))

	tx, err := store.Rate(sess.ID, 0, 1)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if tx.Regret.Cents != 1600 {
		t.Fatalf("regret = %d, want 1600", tx.Regret.Cents)
	}

	got, _ := store.Snapshot(sess.ID)
	if got[0].Happiness != 1 || got[0].Regret.Cents != 1600 {
		t.Fatalf("rating not persisted: %+v", got[0])
	}
}

func TestRateValidation(t *testing.T) {
	store := NewStore(10, time.Minute)
	sess := store.Create(sampleTxns(t))

	if _, err := store.Rate(sess.ID, 5, 3); !errors.Is(err, ErrIndexRange) {
		t.Fatalf("index 5: err = %v, want ErrIndexRange", err)
	}
	if _, err := store.Rate(sess.ID, -1, 3); !errors.Is(err, ErrIndexRange) {
		t.Fatalf("index -1: err = %v, want ErrIndexRange", err)
	}
	if _, err := store.Rate(sess.ID, 0, 6); !errors.Is(err, core.ErrHappinessRange) {
		t.Fatalf("happiness 6: err = %v, want ErrHappinessRange", err)
	}
	if _, err := store.Rate("missing", 0, 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing session: err = %v, want ErrNotFound", err)
	}
}

func TestSetCategories(t *testing.T) {
	store := NewStore(10, time.Minute)
	sess := store.Create(sampleTxns(t))

	if err := store.SetCategories(sess.ID, []string{"Transport", "Entertainment"}); err != nil {
		t.Fatalf("set categories: %v", err)
	}
	if err := store.SetCategories(sess.ID, []string{"OnlyOne"}); err == nil {
		t.Fatal("expected mismatched length error")
	}
}

func TestTTLExpiry(t *testing.T) {
	store := NewStore(10, 20*time.Millisecond)
	sess := store.Create(sampleTxns(t))

	time.Sleep(40 * time.Millisecond)
	if _, err := store.Snapshot(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session: err = %v, want ErrNotFound", err)
	}
}

func TestLRUEviction(t *testing.T) {
	store := NewStore(2, time.Minute)
	first := store.Create(sampleTxns(t))
	second := store.Create(sampleTxns(t))
	third := store.Create(sampleTxns(t))

	if _, err := store.Snapshot(first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("oldest session should be evicted, err = %v", err)
	}
	for _, id := range []string{second.ID, third.ID} {
		if _, err := store.Snapshot(id); err != nil {
			t.Fatalf("session %s should survive: %v", id, err)
		}
	}
	if store.Size() != 2 {
		t.Fatalf("size = %d, want 2", store.Size())
	}
}

func TestCleanExpired(t *testing.T) {
	store := NewStore(10, 20*time.Millisecond)
	store.Create(sampleTxns(t))
	store.Create(sampleTxns(t))

	time.Sleep(40 * time.Millisecond)
	if cleaned := store.CleanExpired(); cleaned != 2 {
		t.Fatalf("cleaned = %d, want 2", cleaned)
	}
	if store.Size() != 0 {
		t.Fatalf("size = %d, want 0", store.Size())
	}
}
