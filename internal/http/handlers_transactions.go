package http

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"financeflow/internal/core"
	"financeflow/internal/ledger"
	"financeflow/internal/log"
)

// transactionRequest is the write payload for creating or replacing a
// transaction. Amount is a JSON number; the date is YYYY-MM-DD.
type transactionRequest struct {
	Type        core.TransactionType `json:"type"`
	Amount      decimal.Decimal      `json:"amount"`
	Description string               `json:"description"`
	Category    core.Category        `json:"category"`
	Date        string               `json:"date"`
}

// toTransaction validates the payload and builds the record. The write
// boundary is strict where the store is permissive: amounts must be
// positive and the date must parse.
func (req *transactionRequest) toTransaction() (core.Transaction, error) {
	if !req.Type.IsValid() {
		return core.Transaction{}, core.ErrInvalidType
	}
	if !req.Amount.IsPositive() {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	category := req.Category
	if !category.Known() {
		category = core.CategoryOther
	}
	return core.NewTransaction(req.Type, req.Amount, sanitizeInput(req.Description), category, date), nil
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// listTransactions returns the collection filtered by the optional
// search, category and type query parameters, most recent first.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txs := core.Filter(s.store.Transactions(),
		q.Get("search"),
		core.Category(q.Get("category")),
		core.TransactionType(q.Get("type")))
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.store.AddTransaction(r.Context(), tx); err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction create failed",
			log.FieldError, err, log.FieldOperation, log.OpCreate, log.FieldTransactionID, tx.ID)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := pathSuffix(r, "/api/transactions/")
	if id == "" {
		writeError(w, http.StatusNotFound, "transaction id required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		tx, ok := s.store.Transaction(id)
		if !ok {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeJSON(w, http.StatusOK, tx)

	case http.MethodPut:
		var req transactionRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tx, err := req.toTransaction()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		tx.ID = id
		if err := s.store.UpdateTransaction(r.Context(), tx); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				writeError(w, http.StatusNotFound, "transaction not found")
				return
			}
			s.logger.ErrorContext(r.Context(), "Transaction update failed",
				log.FieldError, err, log.FieldOperation, log.OpUpdate, log.FieldTransactionID, id)
			writeError(w, http.StatusInternalServerError, "failed to save transaction")
			return
		}
		s.invalidateDerived()
		writeJSON(w, http.StatusOK, tx)

	case http.MethodDelete:
		if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				writeError(w, http.StatusNotFound, "transaction not found")
				return
			}
			s.logger.ErrorContext(r.Context(), "Transaction delete failed",
				log.FieldError, err, log.FieldOperation, log.OpDelete, log.FieldTransactionID, id)
			writeError(w, http.StatusInternalServerError, "failed to delete transaction")
			return
		}
		s.invalidateDerived()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
