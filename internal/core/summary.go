// Package core holds the domain model and the pure aggregation functions
// derived from it. Nothing in this package performs I/O; all functions
// take the transaction collection (and, where noted, the budget mapping)
// as input and never mutate it.
package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const dayMillis = 24 * 60 * 60 * 1000

// Stats is the period summary: totals by type, their difference, and the
// savings rate as a percentage of income.
type Stats struct {
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Balance     decimal.Decimal `json:"balance"`
	SavingsRate float64         `json:"savingsRate"`
}

// Flow is an income/expense pair for a single grouping bucket.
type Flow struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// CategoryAmount is an expense total for one category, with its display
// metadata resolved.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Label    string          `json:"label"`
	Color    string          `json:"color"`
	Amount   decimal.Decimal `json:"amount"`
}

// BudgetStatus reports one budgeted category against the current
// calendar month's spending. Percentage is deliberately unclamped; values
// over 100 mean the budget is blown and the display layer decides how to
// render that.
type BudgetStatus struct {
	Category   string          `json:"category"`
	Label      string          `json:"label"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

// BudgetTotals aggregates all budgeted categories.
type BudgetTotals struct {
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

// InPeriod filters to transactions whose timestamp falls within the
// rolling trailing window of the given number of days, anchored at now.
// days <= 0 means an unbounded window ("all"). This rolling window is
// distinct from calendar-month grouping; the two must not be conflated.
func InPeriod(txs []Transaction, days int, now time.Time) []Transaction {
	if days <= 0 {
		out := make([]Transaction, len(txs))
		copy(out, txs)
		return out
	}
	cutoff := now.UnixMilli() - int64(days)*dayMillis
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Timestamp >= cutoff {
			out = append(out, t)
		}
	}
	return out
}

// Summarize computes income, expenses, balance and savings rate over the
// given transactions. With zero income the savings rate is defined as 0
// regardless of expenses.
func Summarize(txs []Transaction) Stats {
	income := decimal.Zero
	expenses := decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case Income:
			income = income.Add(t.Amount)
		case Expense:
			expenses = expenses.Add(t.Amount)
		}
	}
	stats := Stats{
		Income:   income,
		Expenses: expenses,
		Balance:  income.Sub(expenses),
	}
	if income.IsPositive() {
		stats.SavingsRate, _ = stats.Balance.Div(income).Mul(decimal.NewFromInt(100)).Float64()
	}
	return stats
}

// Recent returns the n most recent transactions by timestamp.
func Recent(txs []Transaction, n int) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryTotals sums expense amounts per category.
func CategoryTotals(txs []Transaction) map[Category]decimal.Decimal {
	totals := make(map[Category]decimal.Decimal)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}
	return totals
}

// TopCategories returns expense totals per category sorted largest first,
// truncated to limit when limit > 0.
func TopCategories(txs []Transaction, limit int) []CategoryAmount {
	totals := CategoryTotals(txs)
	out := make([]CategoryAmount, 0, len(totals))
	for cat, amount := range totals {
		out = append(out, CategoryAmount{
			Category: cat,
			Label:    cat.Label(),
			Color:    cat.Color(),
			Amount:   amount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount.Equal(out[j].Amount) {
			return out[i].Category < out[j].Category
		}
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DailySpending sums expense amounts per calendar day (YYYY-MM-DD key of
// the transaction's date field).
func DailySpending(txs []Transaction) map[string]decimal.Decimal {
	daily := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		key := t.Date.Key()
		daily[key] = daily[key].Add(t.Amount)
	}
	return daily
}

// DailyFlows groups income and expense sums per calendar day.
func DailyFlows(txs []Transaction) map[string]Flow {
	return groupFlows(txs, func(t Transaction) string { return t.Date.Key() })
}

// MonthlyFlows groups income and expense sums per calendar month
// (YYYY-MM key of the transaction's date field, not its timestamp).
func MonthlyFlows(txs []Transaction) map[string]Flow {
	return groupFlows(txs, func(t Transaction) string { return t.Date.MonthKey() })
}

func groupFlows(txs []Transaction, key func(Transaction) string) map[string]Flow {
	flows := make(map[string]Flow)
	for _, t := range txs {
		k := key(t)
		flow := flows[k]
		switch t.Type {
		case Income:
			flow.Income = flow.Income.Add(t.Amount)
		case Expense:
			flow.Expenses = flow.Expenses.Add(t.Amount)
		}
		flows[k] = flow
	}
	return flows
}

// MonthlySpent sums expense amounts for one category within the calendar
// month containing now.
func MonthlySpent(txs []Transaction, category string, now time.Time) decimal.Decimal {
	spent := decimal.Zero
	for _, t := range txs {
		if t.Type != Expense || string(t.Category) != category {
			continue
		}
		if t.Date.Year() == now.Year() && t.Date.Month() == now.Month() {
			spent = spent.Add(t.Amount)
		}
	}
	return spent
}

// BudgetAdherence reports, for every budgeted category, spending within
// the current calendar month against the budget limit. A non-positive
// limit yields zero remaining and zero percentage rather than a division
// fault. Results are sorted by category key.
func BudgetAdherence(txs []Transaction, budgets Budgets, now time.Time) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(budgets))
	for category, limit := range budgets {
		spent := MonthlySpent(txs, category, now)
		status := BudgetStatus{
			Category: category,
			Label:    Category(category).Label(),
			Limit:    limit,
			Spent:    spent,
		}
		if limit.IsPositive() {
			status.Remaining = limit.Sub(spent)
			status.Percentage, _ = spent.Div(limit).Mul(decimal.NewFromInt(100)).Float64()
		}
		out = append(out, status)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// OverallBudget aggregates the per-category statuses into a single
// budget/spent/remaining summary.
func OverallBudget(statuses []BudgetStatus) BudgetTotals {
	totals := BudgetTotals{}
	for _, s := range statuses {
		totals.Budget = totals.Budget.Add(s.Limit)
		totals.Spent = totals.Spent.Add(s.Spent)
	}
	totals.Remaining = totals.Budget.Sub(totals.Spent)
	if totals.Budget.IsPositive() {
		totals.Percentage, _ = totals.Spent.Div(totals.Budget).Mul(decimal.NewFromInt(100)).Float64()
	}
	return totals
}
