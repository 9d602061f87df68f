package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendlog/internal/budget"
	"spendlog/internal/core"
	"spendlog/internal/dashboard"
	"spendlog/internal/ledger"
	applog "spendlog/internal/log"
	"spendlog/internal/notify"
)

type memStore struct {
	nextID   int
	expenses []core.Expense
	budgets  map[string]core.Budget
	cats     []core.Category
}

func newMemStore() *memStore {
	return &memStore{
		budgets: make(map[string]core.Budget),
		cats: []core.Category{
			{ID: "groceries", Name: "Groceries", DisplayOrder: 1},
			{ID: "other", Name: "Other", DisplayOrder: 2},
		},
	}
}

func (s *memStore) category(id string) core.Category {
	for _, c := range s.cats {
		if c.ID == id {
			return c
		}
	}
	return core.Category{ID: id}
}

func (s *memStore) FetchExpenses(_ context.Context, userID string, f ledger.ExpenseFilter, offset, limit int) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID != userID {
			continue
		}
		if f.Window != nil && !f.Window.Contains(e.Date) {
			continue
		}
		if f.CategoryID != "" && e.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, e)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GetExpense(_ context.Context, id, userID string) (core.Expense, error) {
	for _, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

func (s *memStore) InsertExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.nextID++
	e.ID = fmt.Sprintf("e%d", s.nextID)
	e.CreatedAt = time.Now().UTC()
	e.Category = s.category(e.CategoryID)
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *memStore) UpdateExpense(_ context.Context, id, userID string, upd ledger.ExpenseUpdate) error {
	for i, e := range s.expenses {
		if e.ID != id || e.UserID != userID {
			continue
		}
		if upd.AmountCents != nil {
			e.AmountCents = *upd.AmountCents
		}
		if upd.Description != nil {
			e.Description = *upd.Description
		}
		if upd.Date != nil {
			e.Date = *upd.Date
		}
		if upd.CategoryID != nil {
			e.CategoryID = *upd.CategoryID
			e.Category = s.category(e.CategoryID)
		}
		s.expenses[i] = e
		return nil
	}
	return core.ErrNotFound
}

func (s *memStore) DeleteExpense(_ context.Context, id, userID string) error {
	for i, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *memStore) FetchBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) GetBudget(_ context.Context, userID, categoryID string) (core.Budget, error) {
	b, ok := s.budgets[userID+"/"+categoryID]
	if !ok {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func (s *memStore) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	key := b.UserID + "/" + b.CategoryID
	if existing, ok := s.budgets[key]; ok {
		b.ID = existing.ID
	} else {
		s.nextID++
		b.ID = fmt.Sprintf("b%d", s.nextID)
	}
	b.Category = s.category(b.CategoryID)
	s.budgets[key] = b
	return b, nil
}

func (s *memStore) DeleteBudget(_ context.Context, userID, categoryID string) error {
	key := userID + "/" + categoryID
	if _, ok := s.budgets[key]; !ok {
		return core.ErrNotFound
	}
	delete(s.budgets, key)
	return nil
}

func (s *memStore) FetchCategories(context.Context) ([]core.Category, error) {
	return s.cats, nil
}

func testServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	store := newMemStore()
	engine := budget.NewEngine(store, notify.LogSink{}, core.BaseCurrency())
	svc := ledger.NewService(store, engine, nil)
	dash := dashboard.NewService(store, engine)
	logger := applog.New(applog.DefaultConfig())

	srv := NewServer(Options{Addr: ":0"}, svc, engine, dash, logger, nil)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, store
}

func doRequest(srv *Server, method, path, userID, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		r.Header.Set(userIDHeader, userID)
	}
	w := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(w, r)
	return w
}

func TestHealthEndpointsNeedNoAuth(t *testing.T) {
	srv, _ := testServer(t)

	if w := doRequest(srv, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", w.Code)
	}
	if w := doRequest(srv, http.MethodGet, "/readyz", "", ""); w.Code != http.StatusOK {
		t.Fatalf("GET /readyz = %d, want 200", w.Code)
	}
}

func TestAPIRequiresUserHeader(t *testing.T) {
	srv, _ := testServer(t)

	w := doRequest(srv, http.MethodGet, "/api/expenses", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated request = %d, want 401", w.Code)
	}
}

func TestCreateAndListExpense(t *testing.T) {
	srv, _ := testServer(t)
	today := core.DateOf(time.Now()).String()

	body := fmt.Sprintf(`{"category_id":"groceries","amount_cents":1250,"description":"weekly shop","date":%q}`, today)
	w := doRequest(srv, http.MethodPost, "/api/expenses", "u1", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/expenses = %d, body %s", w.Code, w.Body.String())
	}

	var created core.Expense
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created expense: %v", err)
	}
	if created.ID == "" || created.Category.Name != "Groceries" {
		t.Fatalf("unexpected created expense: %+v", created)
	}

	w = doRequest(srv, http.MethodGet, "/api/expenses", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/expenses = %d", w.Code)
	}
	var page ledger.Page
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Expenses) != 1 || page.TotalCents != 1250 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.HasMore {
		t.Fatal("single short page must not report has_more")
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	srv, _ := testServer(t)
	today := core.DateOf(time.Now()).String()

	tests := []struct {
		name string
		body string
	}{
		{"negative amount", fmt.Sprintf(`{"category_id":"groceries","amount_cents":-5,"date":%q}`, today)},
		{"missing category", fmt.Sprintf(`{"amount_cents":100,"date":%q}`, today)},
		{"future date", `{"category_id":"groceries","amount_cents":100,"date":"2999-01-01"}`},
		{"malformed body", `{"amount_cents":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(srv, http.MethodPost, "/api/expenses", "u1", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("POST = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestExpenseByIDScopedToOwner(t *testing.T) {
	srv, _ := testServer(t)
	today := core.DateOf(time.Now()).String()

	body := fmt.Sprintf(`{"category_id":"other","amount_cents":300,"date":%q}`, today)
	w := doRequest(srv, http.MethodPost, "/api/expenses", "u1", body)
	var created core.Expense
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	if w := doRequest(srv, http.MethodGet, "/api/expenses/"+created.ID, "intruder", ""); w.Code != http.StatusNotFound {
		t.Fatalf("foreign GET = %d, want 404", w.Code)
	}
	if w := doRequest(srv, http.MethodDelete, "/api/expenses/"+created.ID, "intruder", ""); w.Code != http.StatusNotFound {
		t.Fatalf("foreign DELETE = %d, want 404", w.Code)
	}
	if w := doRequest(srv, http.MethodDelete, "/api/expenses/"+created.ID, "u1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("owner DELETE = %d, want 204", w.Code)
	}
}

func TestSetAndClearBudget(t *testing.T) {
	srv, _ := testServer(t)

	w := doRequest(srv, http.MethodPut, "/api/budgets/groceries", "u1", `{"monthly_limit_cents":50000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT budget = %d, body %s", w.Code, w.Body.String())
	}
	var saved core.Budget
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode budget: %v", err)
	}
	if saved.MonthlyLimitCents != 50000 {
		t.Fatalf("unexpected budget: %+v", saved)
	}

	// Zero clears the budget.
	w = doRequest(srv, http.MethodPut, "/api/budgets/groceries", "u1", `{"monthly_limit_cents":0}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("PUT zero budget = %d, want 204", w.Code)
	}

	w = doRequest(srv, http.MethodGet, "/api/budgets", "u1", "")
	var resp struct {
		Budgets []core.Budget `json:"budgets"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Budgets) != 0 {
		t.Fatalf("expected no budgets after clearing, got %+v", resp.Budgets)
	}

	if w := doRequest(srv, http.MethodPut, "/api/budgets/groceries", "u1", `{"monthly_limit_cents":-1}`); w.Code != http.StatusBadRequest {
		t.Fatalf("negative limit = %d, want 400", w.Code)
	}
}

func TestDashboardCaching(t *testing.T) {
	srv, _ := testServer(t)

	w := doRequest(srv, http.MethodGet, "/api/dashboard", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/dashboard = %d, body %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("first read X-Cache = %q, want MISS", got)
	}

	if w := doRequest(srv, http.MethodGet, "/api/dashboard", "u1", ""); w.Header().Get("X-Cache") != "HIT" {
		t.Fatal("second read should hit the cache")
	}

	// A write invalidates the user's cached overview.
	today := core.DateOf(time.Now()).String()
	body := fmt.Sprintf(`{"category_id":"other","amount_cents":100,"date":%q}`, today)
	if w := doRequest(srv, http.MethodPost, "/api/expenses", "u1", body); w.Code != http.StatusCreated {
		t.Fatalf("POST = %d", w.Code)
	}

	if w := doRequest(srv, http.MethodGet, "/api/dashboard", "u1", ""); w.Header().Get("X-Cache") != "MISS" {
		t.Fatal("read after write should rebuild the overview")
	}
}

func TestListGroupedByDay(t *testing.T) {
	srv, _ := testServer(t)
	today := core.DateOf(time.Now()).String()

	for i := 0; i < 2; i++ {
		body := fmt.Sprintf(`{"category_id":"other","amount_cents":100,"date":%q}`, today)
		if w := doRequest(srv, http.MethodPost, "/api/expenses", "u1", body); w.Code != http.StatusCreated {
			t.Fatalf("POST = %d", w.Code)
		}
	}

	w := doRequest(srv, http.MethodGet, "/api/expenses?group=day", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET grouped = %d", w.Code)
	}
	var resp struct {
		Groups []ledger.DayGroup `json:"groups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode groups: %v", err)
	}
	if len(resp.Groups) != 1 || resp.Groups[0].SubtotalCents != 200 {
		t.Fatalf("unexpected groups: %+v", resp.Groups)
	}
}
