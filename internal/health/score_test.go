package health

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"financeflow/internal/core"
)

func tx(typ core.TransactionType, amount float64, category core.Category, date core.Date) core.Transaction {
	return core.NewTransaction(typ, decimal.NewFromFloat(amount), "test", category, date)
}

func TestSavingsScore(t *testing.T) {
	today := core.Today()
	tests := []struct {
		name string
		txs  []core.Transaction
		want float64
	}{
		{
			// 20% savings rate earns full marks.
			name: "full score at target rate",
			txs: []core.Transaction{
				tx(core.Income, 1000, core.CategoryIncome, today),
				tx(core.Expense, 800, core.CategoryFood, today),
			},
			want: 25,
		},
		{
			// 40% rate is clamped, not doubled.
			name: "clamped above target",
			txs: []core.Transaction{
				tx(core.Income, 1000, core.CategoryIncome, today),
				tx(core.Expense, 600, core.CategoryFood, today),
			},
			want: 25,
		},
		{
			name: "half the target rate",
			txs: []core.Transaction{
				tx(core.Income, 1000, core.CategoryIncome, today),
				tx(core.Expense, 900, core.CategoryFood, today),
			},
			want: 12.5,
		},
		{
			// Negative savings clamp to zero.
			name: "overspending",
			txs: []core.Transaction{
				tx(core.Income, 100, core.CategoryIncome, today),
				tx(core.Expense, 500, core.CategoryFood, today),
			},
			want: 0,
		},
		{name: "no data", txs: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := savingsScore(tt.txs); got != tt.want {
				t.Errorf("savingsScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBudgetScore(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.Local)
	march := core.NewDate(2024, 3, 10)

	t.Run("no budgets scores zero", func(t *testing.T) {
		if got := budgetScore(nil, core.Budgets{}, now); got != 0 {
			t.Errorf("budgetScore = %v, want 0", got)
		}
	})

	t.Run("fully within budget", func(t *testing.T) {
		budgets := core.Budgets{string(core.CategoryFood): decimal.NewFromInt(400)}
		txs := []core.Transaction{tx(core.Expense, 100, core.CategoryFood, march)}
		if got := budgetScore(txs, budgets, now); got != 25 {
			t.Errorf("budgetScore = %v, want 25", got)
		}
	})

	t.Run("spending at double the limit scores zero", func(t *testing.T) {
		budgets := core.Budgets{string(core.CategoryFood): decimal.NewFromInt(100)}
		txs := []core.Transaction{tx(core.Expense, 200, core.CategoryFood, march)}
		if got := budgetScore(txs, budgets, now); got != 0 {
			t.Errorf("budgetScore = %v, want 0", got)
		}
	})

	t.Run("adherence averages across categories", func(t *testing.T) {
		budgets := core.Budgets{
			string(core.CategoryFood):  decimal.NewFromInt(100),
			string(core.CategoryBills): decimal.NewFromInt(100),
		}
		// Food at double its limit (adherence 0), bills untouched (adherence 1).
		txs := []core.Transaction{tx(core.Expense, 200, core.CategoryFood, march)}
		if got := budgetScore(txs, budgets, now); got != 12.5 {
			t.Errorf("budgetScore = %v, want 12.5", got)
		}
	})

	t.Run("non-positive limit counts as zero adherence", func(t *testing.T) {
		budgets := core.Budgets{
			string(core.CategoryFood):  decimal.Zero,
			string(core.CategoryBills): decimal.NewFromInt(100),
		}
		if got := budgetScore(nil, budgets, now); got != 12.5 {
			t.Errorf("budgetScore = %v, want 12.5", got)
		}
	})
}

func TestConsistencyScore(t *testing.T) {
	today := core.Today()

	t.Run("too few expenses returns default", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, 10, core.CategoryFood, today),
			tx(core.Expense, 10, core.CategoryFood, today.AddDays(-1)),
		}
		if got := consistencyScore(txs); got != defaultScore {
			t.Errorf("consistencyScore = %v, want %v", got, defaultScore)
		}
	})

	t.Run("perfectly even spending scores full", func(t *testing.T) {
		var txs []core.Transaction
		for i := 0; i < 8; i++ {
			txs = append(txs, tx(core.Expense, 50, core.CategoryFood, today.AddDays(-i)))
		}
		if got := consistencyScore(txs); got != 25 {
			t.Errorf("consistencyScore = %v, want 25", got)
		}
	})

	t.Run("erratic spending scores low", func(t *testing.T) {
		var txs []core.Transaction
		for i := 0; i < 7; i++ {
			txs = append(txs, tx(core.Expense, 1, core.CategoryFood, today.AddDays(-i)))
		}
		txs = append(txs, tx(core.Expense, 1000, core.CategoryFood, today.AddDays(-7)))
		uneven := consistencyScore(txs)
		if uneven >= 25 {
			t.Errorf("uneven spending scored %v, expected below 25", uneven)
		}
	})
}

func TestGrowthScore(t *testing.T) {
	now := time.Now()
	today := core.Today()

	t.Run("no older data returns default", func(t *testing.T) {
		txs := []core.Transaction{tx(core.Income, 500, core.CategoryIncome, today.AddDays(-5))}
		if got := growthScore(txs, now); got != defaultScore {
			t.Errorf("growthScore = %v, want %v", got, defaultScore)
		}
	})

	t.Run("full score at target growth", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Income, 1100, core.CategoryIncome, today.AddDays(-5)),
			tx(core.Income, 100, core.CategoryIncome, today.AddDays(-45)),
		}
		if got := growthScore(txs, now); got != 25 {
			t.Errorf("growthScore = %v, want 25", got)
		}
	})

	t.Run("declining balance clamps to zero", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Income, 100, core.CategoryIncome, today.AddDays(-5)),
			tx(core.Income, 900, core.CategoryIncome, today.AddDays(-45)),
		}
		if got := growthScore(txs, now); got != 0 {
			t.Errorf("growthScore = %v, want 0", got)
		}
	})
}

func TestEvaluate(t *testing.T) {
	now := time.Now()
	today := core.Today()

	// A new user with a single income record: default consistency and
	// growth, full savings, no budgets.
	txs := []core.Transaction{tx(core.Income, 1000, core.CategoryIncome, today)}
	score := Evaluate(txs, txs, core.Budgets{}, now)

	if score.Savings != 25 {
		t.Errorf("Savings = %v, want 25", score.Savings)
	}
	if score.Budget != 0 {
		t.Errorf("Budget = %v, want 0", score.Budget)
	}
	if score.Consistency != defaultScore || score.Growth != defaultScore {
		t.Errorf("defaults not applied: consistency=%v growth=%v", score.Consistency, score.Growth)
	}
	if score.Total != 55 {
		t.Errorf("Total = %d, want 55", score.Total)
	}

	empty := Evaluate(nil, nil, nil, now)
	if empty.Total != 30 { // two insufficient-data defaults
		t.Errorf("empty Total = %d, want 30", empty.Total)
	}
	if empty.Total < 0 || empty.Total > 100 {
		t.Errorf("Total out of range: %d", empty.Total)
	}
}
