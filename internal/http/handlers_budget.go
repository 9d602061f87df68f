package http

import (
	"net/http"
	"strings"

	applog "spendlog/internal/log"
)

type budgetSetRequest struct {
	MonthlyLimitCents int64 `json:"monthly_limit_cents"`
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	budgets, err := s.ledger.Budgets(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": budgets})
}

// handleBudgetStatus returns the evaluated current-month state of every
// configured budget.
func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	statuses, err := s.budgets.EvaluateAll(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statuses": statuses})
}

func (s *Server) handleBudgetByCategory(w http.ResponseWriter, r *http.Request, userID string) {
	categoryID := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
	if categoryID == "" || strings.Contains(categoryID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req budgetSetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.ledger.SetBudget(r.Context(), userID, categoryID, req.MonthlyLimitCents)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateUser(userID)

	// A changed limit can change the overall picture; re-evaluate and
	// push the digest. Best effort, the write already succeeded.
	if statuses, err := s.budgets.EvaluateAll(r.Context(), userID); err == nil {
		if err := s.budgets.PublishSummary(r.Context(), statuses); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to publish budget summary",
				applog.FieldUserID, userID, applog.FieldError, err.Error())
		}
	}

	if saved == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
