package http

import (
	"net/http"
	"strconv"
	"strings"

	"spendlog/internal/core"
	"spendlog/internal/ledger"
)

type expenseCreateRequest struct {
	CategoryID  string    `json:"category_id"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	Date        core.Date `json:"date"`
}

type expenseUpdateRequest struct {
	CategoryID  *string    `json:"category_id"`
	AmountCents *int64     `json:"amount_cents"`
	Description *string    `json:"description"`
	Date        *core.Date `json:"date"`
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r, userID)
	case http.MethodPost:
		s.createExpense(w, r, userID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	filter := ledger.ExpenseFilter{
		CategoryID: q.Get("category"),
		Search:     q.Get("search"),
	}

	from, to := q.Get("from"), q.Get("to")
	if (from == "") != (to == "") {
		writeError(w, http.StatusBadRequest, "from and to must be provided together")
		return
	}
	if from != "" {
		start, err := core.ParseDate(from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		end, err := core.ParseDate(to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		if end.Before(start) {
			writeError(w, http.StatusBadRequest, "to must not precede from")
			return
		}
		filter.Window = &core.Window{Start: start, End: end}
	}

	result, err := s.ledger.List(r.Context(), userID, filter, page, pageSize)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if q.Get("group") == "day" {
		writeJSON(w, http.StatusOK, map[string]any{
			"groups":      ledger.GroupByDate(result.Expenses),
			"has_more":    result.HasMore,
			"total_cents": result.TotalCents,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request, userID string) {
	var req expenseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.ledger.Create(r.Context(), core.Expense{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		AmountCents: req.AmountCents,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateUser(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request, userID string) {
	id := strings.TrimPrefix(r.URL.Path, "/api/expenses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, err := s.ledger.Get(r.Context(), id, userID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)

	case http.MethodPatch, http.MethodPut:
		var req expenseUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		upd := ledger.ExpenseUpdate{
			AmountCents: req.AmountCents,
			Description: req.Description,
			Date:        req.Date,
			CategoryID:  req.CategoryID,
		}
		if err := s.ledger.Update(r.Context(), id, userID, upd); err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.invalidateUser(userID)
		e, err := s.ledger.Get(r.Context(), id, userID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)

	case http.MethodDelete:
		if err := s.ledger.Delete(r.Context(), id, userID); err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.invalidateUser(userID)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, _ string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}
