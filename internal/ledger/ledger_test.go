package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"financeflow/internal/core"
	"financeflow/internal/storage"
)

func openTestLedger(t *testing.T) (*Ledger, *storage.Gateway) {
	t.Helper()
	gw := storage.NewGateway(storage.NewMemoryKV())
	l, err := Open(context.Background(), gw)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return l, gw
}

func newTx(amount float64) core.Transaction {
	return core.NewTransaction(core.Expense, decimal.NewFromFloat(amount), "test", core.CategoryFood, core.Today())
}

func TestTransactionCRUD(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestLedger(t)

	tx := newTx(42)
	if err := l.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	got, ok := l.Transaction(tx.ID)
	if !ok || !got.Amount.Equal(tx.Amount) {
		t.Fatalf("Transaction(%s) = %+v ok=%v", tx.ID, got, ok)
	}

	tx.Description = "updated"
	if err := l.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	got, _ = l.Transaction(tx.ID)
	if got.Description != "updated" {
		t.Errorf("update not applied: %q", got.Description)
	}

	if err := l.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, ok := l.Transaction(tx.ID); ok {
		t.Error("transaction survives delete")
	}
	if len(l.Transactions()) != 0 {
		t.Error("collection not empty after delete")
	}
}

func TestMutationsOnMissingID(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestLedger(t)

	if err := l.UpdateTransaction(ctx, newTx(1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTransaction = %v, want ErrNotFound", err)
	}
	if err := l.DeleteTransaction(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteTransaction = %v, want ErrNotFound", err)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestLedger(t)

	bad := core.Transaction{ID: "x", Type: "transfer", Date: core.Today()}
	if err := l.AddTransaction(ctx, bad); !errors.Is(err, core.ErrInvalidType) {
		t.Errorf("AddTransaction = %v, want ErrInvalidType", err)
	}
	if len(l.Transactions()) != 0 {
		t.Error("invalid record was stored")
	}
}

func TestBudgets(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestLedger(t)

	if err := l.SetBudget(ctx, core.CategoryFood, decimal.NewFromInt(400)); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	// Setting again overwrites.
	if err := l.SetBudget(ctx, core.CategoryFood, decimal.NewFromInt(250)); err != nil {
		t.Fatalf("SetBudget overwrite: %v", err)
	}
	budgets := l.Budgets()
	if len(budgets) != 1 || !budgets[string(core.CategoryFood)].Equal(decimal.NewFromInt(250)) {
		t.Errorf("budgets = %v", budgets)
	}

	if err := l.DeleteBudget(ctx, core.CategoryFood); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	// Deleting an absent category is a no-op.
	if err := l.DeleteBudget(ctx, core.CategoryFood); err != nil {
		t.Errorf("DeleteBudget(absent) = %v", err)
	}
	if len(l.Budgets()) != 0 {
		t.Error("budget survives delete")
	}
}

func TestWriteThroughPersists(t *testing.T) {
	ctx := context.Background()
	gw := storage.NewGateway(storage.NewMemoryKV())
	l, err := Open(ctx, gw)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tx := newTx(10)
	if err := l.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if err := l.SetBudget(ctx, core.CategoryBills, decimal.NewFromInt(800)); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}

	// A second store over the same gateway must see everything.
	reopened, err := Open(ctx, gw)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(reopened.Transactions()) != 1 || len(reopened.Budgets()) != 1 {
		t.Errorf("reopened store: %d txs, %d budgets", len(reopened.Transactions()), len(reopened.Budgets()))
	}
}

func TestDefensiveCopies(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestLedger(t)
	if err := l.AddTransaction(ctx, newTx(10)); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	got := l.Transactions()
	got[0].Description = "mutated"
	if l.Transactions()[0].Description == "mutated" {
		t.Error("Transactions() exposes internal slice")
	}

	budgets := l.Budgets()
	budgets["food"] = decimal.NewFromInt(1)
	if len(l.Budgets()) != 0 {
		t.Error("Budgets() exposes internal map")
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestLedger(t)

	if err := l.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(l.Transactions()) != 4 || len(l.Budgets()) != 5 {
		t.Errorf("seed produced %d txs, %d budgets", len(l.Transactions()), len(l.Budgets()))
	}

	// Seeding a non-empty store is a no-op.
	before := l.Transactions()
	if err := l.Seed(ctx); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	after := l.Transactions()
	if len(after) != len(before) || after[0].ID != before[0].ID {
		t.Error("seed overwrote existing data")
	}
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	gw := storage.NewGateway(storage.NewMemoryKV())
	l, err := Open(ctx, gw)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.AddTransaction(ctx, newTx(10)); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	// Import writes storage behind the store's back.
	if err := gw.ImportData(ctx, []byte(`{"transactions": [], "budgets": {"bills": 100}}`)); err != nil {
		t.Fatalf("ImportData: %v", err)
	}
	if err := l.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(l.Transactions()) != 0 {
		t.Error("reload kept stale transactions")
	}
	if !l.Budgets()["bills"].Equal(decimal.NewFromInt(100)) {
		t.Errorf("reload missed budgets: %v", l.Budgets())
	}
}
