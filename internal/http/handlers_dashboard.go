package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"financeflow/internal/core"
	"financeflow/internal/health"
	"financeflow/internal/log"
)

// dashboardResponse is the at-a-glance payload: period summary, the most
// recent records, top spending categories, budget totals and the health
// score.
type dashboardResponse struct {
	PeriodDays    int                   `json:"periodDays"`
	Stats         core.Stats            `json:"stats"`
	Recent        []core.Transaction    `json:"recentTransactions"`
	TopCategories []core.CategoryAmount `json:"topCategories"`
	Budget        core.BudgetTotals     `json:"budget"`
	Health        health.Score          `json:"health"`
}

// analyticsResponse carries the chart-feeding rollups for the period.
type analyticsResponse struct {
	PeriodDays     int                        `json:"periodDays"`
	Stats          core.Stats                 `json:"stats"`
	DailySpending  map[string]decimal.Decimal `json:"dailySpending"`
	MonthlyFlows   map[string]core.Flow       `json:"monthlyFlows"`
	CategoryTotals []core.CategoryAmount      `json:"categoryTotals"`
	BudgetStatuses []core.BudgetStatus        `json:"budgetStatuses"`
	Health         health.Score               `json:"health"`
}

const recentCount = 5

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	days := parsePeriod(r)
	key := strconv.Itoa(days)
	if cached, found := s.dashboardCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "Dashboard cache hit", log.FieldPeriodDays, days)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	now := time.Now()
	all := s.store.Transactions()
	budgets := s.store.Budgets()
	window := core.InPeriod(all, days, now)

	statuses := core.BudgetAdherence(all, budgets, now)
	resp := dashboardResponse{
		PeriodDays:    days,
		Stats:         core.Summarize(window),
		Recent:        core.Recent(window, recentCount),
		TopCategories: core.TopCategories(window, recentCount),
		Budget:        core.OverallBudget(statuses),
		Health:        health.Evaluate(window, all, budgets, now),
	}

	s.dashboardCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	days := parsePeriod(r)
	key := strconv.Itoa(days)
	if cached, found := s.analyticsCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "Analytics cache hit", log.FieldPeriodDays, days)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	now := time.Now()
	all := s.store.Transactions()
	budgets := s.store.Budgets()
	window := core.InPeriod(all, days, now)

	resp := analyticsResponse{
		PeriodDays:     days,
		Stats:          core.Summarize(window),
		DailySpending:  core.DailySpending(window),
		MonthlyFlows:   core.MonthlyFlows(window),
		CategoryTotals: core.TopCategories(window, 0),
		BudgetStatuses: core.BudgetAdherence(all, budgets, now),
		Health:         health.Evaluate(window, all, budgets, now),
	}

	s.analyticsCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}
