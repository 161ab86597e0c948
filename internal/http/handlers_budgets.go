package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"financeflow/internal/core"
	"financeflow/internal/log"
)

type budgetRequest struct {
	Limit decimal.Decimal `json:"limit"`
}

// budgetsResponse pairs the raw limits with their adherence against the
// current calendar month.
type budgetsResponse struct {
	Budgets  core.Budgets        `json:"budgets"`
	Statuses []core.BudgetStatus `json:"statuses"`
	Totals   core.BudgetTotals   `json:"totals"`
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	budgets := s.store.Budgets()
	statuses := core.BudgetAdherence(s.store.Transactions(), budgets, time.Now())
	writeJSON(w, http.StatusOK, budgetsResponse{
		Budgets:  budgets,
		Statuses: statuses,
		Totals:   core.OverallBudget(statuses),
	})
}

func (s *Server) handleBudgetByCategory(w http.ResponseWriter, r *http.Request) {
	category := core.Category(pathSuffix(r, "/api/budgets/"))
	if category == "" {
		writeError(w, http.StatusNotFound, "budget category required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		// Budgets apply to expense categories only.
		if !category.Known() || category == core.CategoryIncome {
			writeError(w, http.StatusUnprocessableEntity, "unknown budget category")
			return
		}
		var req budgetRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !req.Limit.IsPositive() {
			writeError(w, http.StatusUnprocessableEntity, "budget limit must be positive")
			return
		}
		if err := s.store.SetBudget(r.Context(), category, req.Limit); err != nil {
			s.logger.ErrorContext(r.Context(), "Budget save failed",
				log.FieldError, err, log.FieldOperation, log.OpUpdate, log.FieldCategory, string(category))
			writeError(w, http.StatusInternalServerError, "failed to save budget")
			return
		}
		s.invalidateDerived()
		writeJSON(w, http.StatusOK, s.store.Budgets())

	case http.MethodDelete:
		if err := s.store.DeleteBudget(r.Context(), category); err != nil {
			s.logger.ErrorContext(r.Context(), "Budget delete failed",
				log.FieldError, err, log.FieldOperation, log.OpDelete, log.FieldCategory, string(category))
			writeError(w, http.StatusInternalServerError, "failed to delete budget")
			return
		}
		s.invalidateDerived()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
