// Package storage is the SQLite implementation of the ledger store
// adapter. Queries are handwritten; category display fields come back
// joined so callers never do a second lookup.
package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/ledger"

	_ "modernc.org/sqlite"
)

const expenseColumns = `e.id, e.user_id, e.category_id, e.amount_cents, e.description, e.expense_date, e.created_at,
	c.name, c.color, c.icon_name, c.emoji, c.display_order`

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// SQLite leaves foreign keys off per connection unless asked; the
	// pragma in the DSN turns them on for every connection in the pool
	// so a bad category id fails the write instead of orphaning a row.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// newID returns a random 16-byte hex identifier.
func newID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func (r *SQLiteRepository) FetchExpenses(ctx context.Context, userID string, f ledger.ExpenseFilter, offset, limit int) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = ?`
	args := []any{userID}

	if f.Window != nil {
		query += ` AND e.expense_date >= ? AND e.expense_date <= ?`
		args = append(args, f.Window.Start.String(), f.Window.End.String())
	}
	if f.CategoryID != "" {
		query += ` AND e.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.Search != "" {
		query += ` AND LOWER(e.description) LIKE ?`
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
	}

	query += ` ORDER BY e.expense_date DESC, e.created_at DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id, userID string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+`
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.id = ? AND e.user_id = ?`, id, userID)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	return e, err
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = newID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO expenses
		(id, user_id, category_id, amount_cents, description, expense_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.CategoryID, e.AmountCents, e.Description,
		e.Date.String(), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.Expense{}, fmt.Errorf("category %s: %w", e.CategoryID, core.ErrNotFound)
		}
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	return r.GetExpense(ctx, e.ID, e.UserID)
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id, userID string, upd ledger.ExpenseUpdate) error {
	var sets []string
	var args []any

	if upd.AmountCents != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, *upd.AmountCents)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Date != nil {
		sets = append(sets, "expense_date = ?")
		args = append(args, upd.Date.String())
	}
	if upd.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *upd.CategoryID)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id, userID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("category %s: %w", *upd.CategoryID, core.ErrNotFound)
		}
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id, userID string) error {
	// Conditional on both id and owner: a guessed id never deletes a
	// foreign record.
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) FetchBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT b.id, b.user_id, b.category_id, b.monthly_limit_cents,
		c.name, c.color, c.icon_name, c.emoji, c.display_order
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = ?
		ORDER BY c.display_order`, userID)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.MonthlyLimitCents,
			&b.Category.Name, &b.Category.Color, &b.Category.IconName,
			&b.Category.Emoji, &b.Category.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Category.ID = b.CategoryID
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, categoryID string) (core.Budget, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx, `SELECT b.id, b.user_id, b.category_id, b.monthly_limit_cents,
		c.name, c.color, c.icon_name, c.emoji, c.display_order
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = ? AND b.category_id = ?`, userID, categoryID).
		Scan(&b.ID, &b.UserID, &b.CategoryID, &b.MonthlyLimitCents,
			&b.Category.Name, &b.Category.Color, &b.Category.IconName,
			&b.Category.Emoji, &b.Category.DisplayOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("query budget: %w", err)
	}
	b.Category.ID = b.CategoryID
	return b, nil
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	// At most one budget per (user, category); updates replace the limit.
	_, err := r.db.ExecContext(ctx, `INSERT INTO budgets (id, user_id, category_id, monthly_limit_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, category_id)
		DO UPDATE SET monthly_limit_cents = excluded.monthly_limit_cents`,
		newID(), b.UserID, b.CategoryID, b.MonthlyLimitCents)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.Budget{}, fmt.Errorf("category %s: %w", b.CategoryID, core.ErrNotFound)
		}
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return r.GetBudget(ctx, b.UserID, b.CategoryID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, categoryID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE user_id = ? AND category_id = ?`, userID, categoryID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) FetchCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color, icon_name, emoji, display_order
		FROM categories ORDER BY display_order`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.IconName, &c.Emoji, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var dateStr, createdStr string
	if err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.AmountCents, &e.Description,
		&dateStr, &createdStr,
		&e.Category.Name, &e.Category.Color, &e.Category.IconName,
		&e.Category.Emoji, &e.Category.DisplayOrder); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, sql.ErrNoRows
		}
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Category.ID = e.CategoryID

	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", dateStr, err)
	}
	e.Date = date

	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at %q: %w", createdStr, err)
	}
	e.CreatedAt = created
	return e, nil
}

// isForeignKeyViolation matches the constraint error SQLite raises when
// a write names a category id that does not exist.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
