package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/ledger"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "spendlog.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insertExpense(t *testing.T, repo *SQLiteRepository, userID, categoryID string, cents int64, date core.Date, createdAt time.Time, desc string) core.Expense {
	t.Helper()
	e, err := repo.InsertExpense(context.Background(), core.Expense{
		UserID:      userID,
		CategoryID:  categoryID,
		AmountCents: cents,
		Description: desc,
		Date:        date,
		CreatedAt:   createdAt,
	})
	if err != nil {
		t.Fatalf("insert expense: %v", err)
	}
	return e
}

func TestCategoriesSeeded(t *testing.T) {
	repo := testRepo(t)

	cats, err := repo.FetchCategories(context.Background())
	if err != nil {
		t.Fatalf("fetch categories: %v", err)
	}
	if len(cats) != 9 {
		t.Fatalf("expected 9 seeded categories, got %d", len(cats))
	}
	if cats[0].Name != "Food & Dining" || cats[8].Name != "Other" {
		t.Fatalf("unexpected order: first=%q last=%q", cats[0].Name, cats[8].Name)
	}
	for i := 1; i < len(cats); i++ {
		if cats[i].DisplayOrder < cats[i-1].DisplayOrder {
			t.Fatalf("categories not ordered by display_order")
		}
	}
}

func TestInsertAndGetExpense(t *testing.T) {
	repo := testRepo(t)
	date := core.NewDate(2025, time.March, 10)

	created := insertExpense(t, repo, "u1", "groceries", 1250, date, time.Time{}, "weekly shop")
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if created.Category.Name != "Groceries" || created.Category.Emoji == "" {
		t.Fatalf("expected joined category fields, got %+v", created.Category)
	}

	got, err := repo.GetExpense(context.Background(), created.ID, "u1")
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if got.AmountCents != 1250 || got.Date.String() != "2025-03-10" || got.Description != "weekly shop" {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := repo.GetExpense(context.Background(), created.ID, "someone-else"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign user must get not-found, got %v", err)
	}
}

func TestFetchExpensesOrdering(t *testing.T) {
	repo := testRepo(t)
	base := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	insertExpense(t, repo, "u1", "other", 100, core.NewDate(2025, time.March, 9), base, "old day")
	first := insertExpense(t, repo, "u1", "other", 200, core.NewDate(2025, time.March, 10), base.Add(time.Hour), "later same day")
	insertExpense(t, repo, "u1", "other", 300, core.NewDate(2025, time.March, 10), base, "earlier same day")

	got, err := repo.FetchExpenses(context.Background(), "u1", ledger.ExpenseFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	// Newest date first, created_at breaks the same-day tie.
	if got[0].ID != first.ID || got[1].Description != "earlier same day" || got[2].Description != "old day" {
		t.Fatalf("unexpected order: %q %q %q", got[0].Description, got[1].Description, got[2].Description)
	}
}

func TestFetchExpensesFilters(t *testing.T) {
	repo := testRepo(t)
	base := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

	insertExpense(t, repo, "u1", "groceries", 100, core.NewDate(2025, time.March, 2), base, "Trader Joe's")
	insertExpense(t, repo, "u1", "food-dining", 200, core.NewDate(2025, time.March, 3), base, "lunch with Joe")
	insertExpense(t, repo, "u1", "food-dining", 300, core.NewDate(2025, time.February, 20), base, "dinner")
	insertExpense(t, repo, "u2", "groceries", 400, core.NewDate(2025, time.March, 2), base, "not mine")

	w := core.Window{Start: core.NewDate(2025, time.March, 1), End: core.NewDate(2025, time.March, 31)}

	got, err := repo.FetchExpenses(context.Background(), "u1", ledger.ExpenseFilter{Window: &w}, 0, 0)
	if err != nil || len(got) != 2 {
		t.Fatalf("window filter: expected 2, got %d (err=%v)", len(got), err)
	}

	got, err = repo.FetchExpenses(context.Background(), "u1", ledger.ExpenseFilter{CategoryID: "food-dining"}, 0, 0)
	if err != nil || len(got) != 2 {
		t.Fatalf("category filter: expected 2, got %d (err=%v)", len(got), err)
	}

	// Case-insensitive substring match on the description.
	got, err = repo.FetchExpenses(context.Background(), "u1", ledger.ExpenseFilter{Search: "JOE"}, 0, 0)
	if err != nil || len(got) != 2 {
		t.Fatalf("search filter: expected 2, got %d (err=%v)", len(got), err)
	}
}

func TestFetchExpensesPagination(t *testing.T) {
	repo := testRepo(t)
	base := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertExpense(t, repo, "u1", "other", 100, core.NewDate(2025, time.March, 1+i), base, "")
	}

	page, err := repo.FetchExpenses(context.Background(), "u1", ledger.ExpenseFilter{}, 0, 2)
	if err != nil || len(page) != 2 {
		t.Fatalf("expected 2, got %d (err=%v)", len(page), err)
	}
	last, err := repo.FetchExpenses(context.Background(), "u1", ledger.ExpenseFilter{}, 4, 2)
	if err != nil || len(last) != 1 {
		t.Fatalf("expected short last page of 1, got %d (err=%v)", len(last), err)
	}
}

func TestUpdateExpense(t *testing.T) {
	repo := testRepo(t)
	e := insertExpense(t, repo, "u1", "other", 100, core.NewDate(2025, time.March, 1), time.Time{}, "before")

	amount := int64(250)
	desc := "after"
	cat := "groceries"
	err := repo.UpdateExpense(context.Background(), e.ID, "u1", ledger.ExpenseUpdate{
		AmountCents: &amount,
		Description: &desc,
		CategoryID:  &cat,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := repo.GetExpense(context.Background(), e.ID, "u1")
	if got.AmountCents != 250 || got.Description != "after" || got.Category.Name != "Groceries" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := repo.UpdateExpense(context.Background(), e.ID, "intruder", ledger.ExpenseUpdate{AmountCents: &amount}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign update must be not-found, got %v", err)
	}
}

func TestDeleteExpenseConditional(t *testing.T) {
	repo := testRepo(t)
	e := insertExpense(t, repo, "u1", "other", 100, core.NewDate(2025, time.March, 1), time.Time{}, "")

	if err := repo.DeleteExpense(context.Background(), e.ID, "intruder"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign delete must be not-found, got %v", err)
	}
	if err := repo.DeleteExpense(context.Background(), e.ID, "u1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := repo.DeleteExpense(context.Background(), e.ID, "u1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete must be not-found, got %v", err)
	}
}

func TestBudgetUpsertAndDelete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.GetBudget(ctx, "u1", "groceries"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not-found before upsert, got %v", err)
	}

	b, err := repo.UpsertBudget(ctx, core.Budget{UserID: "u1", CategoryID: "groceries", MonthlyLimitCents: 50000})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if b.MonthlyLimitCents != 50000 || b.Category.Name != "Groceries" {
		t.Fatalf("unexpected budget: %+v", b)
	}

	// Second upsert replaces the limit, it does not add a row.
	b2, err := repo.UpsertBudget(ctx, core.Budget{UserID: "u1", CategoryID: "groceries", MonthlyLimitCents: 60000})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if b2.MonthlyLimitCents != 60000 || b2.ID != b.ID {
		t.Fatalf("upsert must replace in place: %+v vs %+v", b, b2)
	}

	all, err := repo.FetchBudgets(ctx, "u1")
	if err != nil || len(all) != 1 {
		t.Fatalf("expected exactly one budget, got %d (err=%v)", len(all), err)
	}

	if err := repo.DeleteBudget(ctx, "u1", "groceries"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteBudget(ctx, "u1", "groceries"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete must be not-found, got %v", err)
	}
}

func TestUnknownCategoryLeavesNoPartialState(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	date := core.NewDate(2025, time.March, 10)

	_, err := repo.InsertExpense(ctx, core.Expense{
		UserID:      "u1",
		CategoryID:  "no-such-category",
		AmountCents: 500,
		Date:        date,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not-found for unknown category, got %v", err)
	}

	// The failed insert must not leave an orphan row that a later
	// category seed would pull into aggregations.
	var count int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM expenses`).Scan(&count); err != nil {
		t.Fatalf("count expenses: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows after failed insert, got %d", count)
	}

	e := insertExpense(t, repo, "u1", "groceries", 1250, date, time.Time{}, "weekly shop")
	badCat := "still-missing"
	err = repo.UpdateExpense(ctx, e.ID, "u1", ledger.ExpenseUpdate{CategoryID: &badCat})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not-found updating to unknown category, got %v", err)
	}
	got, err := repo.GetExpense(ctx, e.ID, "u1")
	if err != nil || got.CategoryID != "groceries" {
		t.Fatalf("expense must keep its category after failed update: %+v (err=%v)", got, err)
	}

	if _, err := repo.UpsertBudget(ctx, core.Budget{UserID: "u1", CategoryID: "no-such-category", MonthlyLimitCents: 1000}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not-found for budget on unknown category, got %v", err)
	}
}
