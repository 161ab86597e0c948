// Package ledger is the in-memory record store: the authoritative
// collections of transactions and budgets, loaded once at startup and
// written through to storage on every mutation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"financeflow/internal/core"
	"financeflow/internal/storage"
)

// ErrNotFound reports a mutation against a transaction id that is not in
// the store.
var ErrNotFound = errors.New("transaction not found")

// Ledger holds the working dataset. All reads and mutations go through
// it; storage is a durability layer underneath, never a second source of
// truth. Mutations apply in memory first and then write through, so a
// storage failure degrades durability, not correctness.
type Ledger struct {
	mu           sync.RWMutex
	transactions []core.Transaction
	budgets      core.Budgets
	gw           *storage.Gateway
}

// Open migrates the stored dataset and loads it into a ready store.
func Open(ctx context.Context, gw *storage.Gateway) (*Ledger, error) {
	if err := gw.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate dataset: %w", err)
	}
	txs, err := gw.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	budgets, err := gw.LoadBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	slog.InfoContext(ctx, "Ledger opened", "transactions", len(txs), "budgets", len(budgets))
	return &Ledger{transactions: txs, budgets: budgets, gw: gw}, nil
}

// Transactions returns a copy of the full collection, unordered as stored.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Budgets returns a copy of the per-category budget limits.
func (l *Ledger) Budgets() core.Budgets {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(core.Budgets, len(l.budgets))
	for k, v := range l.budgets {
		out[k] = v
	}
	return out
}

// AddTransaction validates and appends a record, then writes through.
// The record stays in the store even when the write fails; the error
// reports the lost durability.
func (l *Ledger) AddTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.transactions = append(l.transactions, tx)
	txs := append([]core.Transaction(nil), l.transactions...)
	l.mu.Unlock()
	return l.gw.SaveTransactions(ctx, txs)
}

// UpdateTransaction replaces the record with the same id.
func (l *Ledger) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	idx := -1
	for i, existing := range l.transactions {
		if existing.ID == tx.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, tx.ID)
	}
	l.transactions[idx] = tx
	txs := append([]core.Transaction(nil), l.transactions...)
	l.mu.Unlock()
	return l.gw.SaveTransactions(ctx, txs)
}

// DeleteTransaction removes the record with the given id.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	l.mu.Lock()
	idx := -1
	for i, existing := range l.transactions {
		if existing.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l.transactions = append(l.transactions[:idx], l.transactions[idx+1:]...)
	txs := append([]core.Transaction(nil), l.transactions...)
	l.mu.Unlock()
	return l.gw.SaveTransactions(ctx, txs)
}

// Transaction returns the record with the given id.
func (l *Ledger) Transaction(id string) (core.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, tx := range l.transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// SetBudget sets or replaces the monthly limit for a category. Setting
// an existing category overwrites its limit.
func (l *Ledger) SetBudget(ctx context.Context, category core.Category, limit decimal.Decimal) error {
	l.mu.Lock()
	if l.budgets == nil {
		l.budgets = core.Budgets{}
	}
	l.budgets[string(category)] = limit
	budgets := l.copyBudgetsLocked()
	l.mu.Unlock()
	return l.gw.SaveBudgets(ctx, budgets)
}

// DeleteBudget removes the limit for a category. Removing an absent
// category is a no-op.
func (l *Ledger) DeleteBudget(ctx context.Context, category core.Category) error {
	l.mu.Lock()
	delete(l.budgets, string(category))
	budgets := l.copyBudgetsLocked()
	l.mu.Unlock()
	return l.gw.SaveBudgets(ctx, budgets)
}

func (l *Ledger) copyBudgetsLocked() core.Budgets {
	out := make(core.Budgets, len(l.budgets))
	for k, v := range l.budgets {
		out[k] = v
	}
	return out
}

// Reload replaces the in-memory dataset with what storage currently
// holds. Used after import, restore, and clear, which bypass the store
// and write storage directly.
func (l *Ledger) Reload(ctx context.Context) error {
	txs, err := l.gw.LoadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	budgets, err := l.gw.LoadBudgets(ctx)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}
	l.mu.Lock()
	l.transactions = txs
	l.budgets = budgets
	l.mu.Unlock()
	return nil
}

// Seed populates an empty store with a small starter dataset so a fresh
// install has something to look at. A store that already has data is
// left alone.
func (l *Ledger) Seed(ctx context.Context) error {
	l.mu.Lock()
	if len(l.transactions) > 0 || len(l.budgets) > 0 {
		l.mu.Unlock()
		return nil
	}
	today := core.Today()
	l.transactions = []core.Transaction{
		core.NewTransaction(core.Income, decimal.NewFromInt(3500), "Salary", core.CategoryIncome, today.AddDays(-5)),
		core.NewTransaction(core.Expense, decimal.NewFromFloat(85.50), "Grocery shopping", core.CategoryFood, today.AddDays(-3)),
		core.NewTransaction(core.Expense, decimal.NewFromInt(45), "Gas station", core.CategoryTransportation, today.AddDays(-2)),
		core.NewTransaction(core.Expense, decimal.NewFromFloat(25.99), "Netflix subscription", core.CategoryEntertainment, today.AddDays(-1)),
	}
	l.budgets = core.Budgets{
		string(core.CategoryFood):           decimal.NewFromInt(400),
		string(core.CategoryTransportation): decimal.NewFromInt(200),
		string(core.CategoryEntertainment):  decimal.NewFromInt(150),
		string(core.CategoryShopping):       decimal.NewFromInt(300),
		string(core.CategoryBills):          decimal.NewFromInt(800),
	}
	txs := append([]core.Transaction(nil), l.transactions...)
	budgets := l.copyBudgetsLocked()
	l.mu.Unlock()
	slog.InfoContext(ctx, "Seeded starter dataset", "transactions", len(txs), "budgets", len(budgets))
	return l.gw.SaveData(ctx, txs, budgets)
}
