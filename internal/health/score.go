// Package health derives the composite financial health score from the
// aggregation outputs in core. All functions are pure; the score is a
// display statistic, so the arithmetic runs in float64 after a single
// conversion from the decimal amounts.
package health

import (
	"math"
	"time"

	"financeflow/internal/core"
)

// Policy constants. These are fixed scoring targets, not derived values:
// a 20% savings rate, or $1000 of balance growth, earns full marks for
// the respective sub-score.
const (
	subScoreMax      = 25.0
	fullSavingsRate  = 20.0
	fullGrowthAmount = 1000.0

	// defaultScore is the insufficient-data result: enough of a score to
	// not punish a new user, not enough to reward them.
	defaultScore = 15.0

	// minExpenseSamples is the minimum number of expense transactions in
	// the scoring window before spending consistency is computed.
	minExpenseSamples = 7

	growthWindowDays = 30
)

// Score is the composite result: four sub-scores in [0, 25] and their
// rounded total in [0, 100].
type Score struct {
	Total       int     `json:"total"`
	Savings     float64 `json:"savings"`
	Budget      float64 `json:"budget"`
	Consistency float64 `json:"consistency"`
	Growth      float64 `json:"growth"`
}

// Evaluate computes the health score. The savings and consistency
// sub-scores read the period-windowed transactions; the budget and growth
// sub-scores read the full collection, since budget adherence is anchored
// to the current calendar month and growth compares its own trailing
// windows.
func Evaluate(window, all []core.Transaction, budgets core.Budgets, now time.Time) Score {
	s := Score{
		Savings:     savingsScore(window),
		Budget:      budgetScore(all, budgets, now),
		Consistency: consistencyScore(window),
		Growth:      growthScore(all, now),
	}
	s.Total = int(math.Round(s.Savings + s.Budget + s.Consistency + s.Growth))
	return s
}

func savingsScore(window []core.Transaction) float64 {
	stats := core.Summarize(window)
	return clamp(stats.SavingsRate/fullSavingsRate*subScoreMax, 0, subScoreMax)
}

// budgetScore averages per-category adherence. Adherence 1 means the
// category is fully within budget; it decays linearly to 0 as spending
// reaches twice the limit. Without budgets the score is 0, not NaN.
func budgetScore(all []core.Transaction, budgets core.Budgets, now time.Time) float64 {
	if len(budgets) == 0 {
		return 0
	}
	sum := 0.0
	for category, limit := range budgets {
		if !limit.IsPositive() {
			// A non-positive limit cannot be adhered to; count it as 0
			// instead of dividing by it.
			continue
		}
		spent := core.MonthlySpent(all, category, now)
		ratio, _ := limit.Sub(spent).Div(limit).Float64()
		sum += clamp(ratio+1, 0, 1)
	}
	return sum / float64(len(budgets)) * subScoreMax
}

// consistencyScore rewards even day-to-day spending. It needs at least
// minExpenseSamples expense transactions in the window; below that, and
// when the daily mean is zero (which would make the coefficient of
// variation undefined), it returns the insufficient-data default.
func consistencyScore(window []core.Transaction) float64 {
	expenseCount := 0
	for _, t := range window {
		if t.Type == core.Expense {
			expenseCount++
		}
	}
	if expenseCount < minExpenseSamples {
		return defaultScore
	}

	daily := core.DailySpending(window)
	amounts := make([]float64, 0, len(daily))
	for _, amount := range daily {
		f, _ := amount.Float64()
		amounts = append(amounts, f)
	}

	mean := 0.0
	for _, a := range amounts {
		mean += a
	}
	mean /= float64(len(amounts))
	if mean == 0 {
		return defaultScore
	}

	variance := 0.0
	for _, a := range amounts {
		variance += (a - mean) * (a - mean)
	}
	variance /= float64(len(amounts))

	coefficient := variance / (mean * mean)
	return clamp(subScoreMax-coefficient*10, 0, subScoreMax)
}

// growthScore compares the balance of the trailing 30 days against the
// preceding 30 (days 31-60). An empty older window returns the default.
func growthScore(all []core.Transaction, now time.Time) float64 {
	recent := core.InPeriod(all, growthWindowDays, now)

	boundary := now.UnixMilli() - int64(growthWindowDays)*24*60*60*1000
	older := make([]core.Transaction, 0)
	for _, t := range core.InPeriod(all, 2*growthWindowDays, now) {
		if t.Timestamp < boundary {
			older = append(older, t)
		}
	}
	if len(older) == 0 {
		return defaultScore
	}

	recentBalance, _ := core.Summarize(recent).Balance.Float64()
	olderBalance, _ := core.Summarize(older).Balance.Float64()
	growth := recentBalance - olderBalance
	return clamp(growth/fullGrowthAmount*subScoreMax, 0, subScoreMax)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
