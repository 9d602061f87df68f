// Package worker drains the sync queue, mirroring ledger writes into
// the configured export target.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/ledger"
	"spendlog/internal/sheets"
)

// SyncWorker applies sync messages against the export target. Upserts
// re-read the expense from the store so the exported row always
// reflects the latest write, not the message payload.
type SyncWorker struct {
	store   ledger.Store
	writer  sheets.ExpenseWriter
	remover sheets.ExpenseRemover
}

func NewSyncWorker(store ledger.Store, writer sheets.ExpenseWriter, remover sheets.ExpenseRemover) *SyncWorker {
	return &SyncWorker{
		store:   store,
		writer:  writer,
		remover: remover,
	}
}

// Handle processes a single sync message.
func (w *SyncWorker) Handle(ctx context.Context, msg *amqp.SyncMessage) error {
	switch msg.Op {
	case amqp.OpUpsert:
		return w.handleUpsert(ctx, msg)
	case amqp.OpDelete:
		return w.handleDelete(ctx, msg)
	default:
		// Unknown ops are dropped, requeueing them cannot help.
		slog.WarnContext(ctx, "Dropping sync message with unknown op",
			"component", "worker", "op", msg.Op, "expense_id", msg.ExpenseID)
		return nil
	}
}

func (w *SyncWorker) handleUpsert(ctx context.Context, msg *amqp.SyncMessage) error {
	expense, err := w.store.GetExpense(ctx, msg.ExpenseID, msg.UserID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between enqueue and processing; nothing to export.
		slog.InfoContext(ctx, "Expense gone before export, skipping",
			"component", "worker", "expense_id", msg.ExpenseID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	// An edit may have been exported before; drop the stale row first.
	if w.remover != nil {
		if err := w.remover.Remove(ctx, expense.ID); err != nil {
			slog.WarnContext(ctx, "Failed to remove stale exported row",
				"component", "worker", "expense_id", expense.ID, "error", err)
		}
	}

	ref, err := w.writer.Append(ctx, expense)
	if err != nil {
		return fmt.Errorf("append to export target: %w", err)
	}

	slog.InfoContext(ctx, "Exported expense",
		"component", "worker",
		"expense_id", expense.ID,
		"user_id", expense.UserID,
		"amount_cents", expense.AmountCents,
		"sheets_ref", ref)
	return nil
}

func (w *SyncWorker) handleDelete(ctx context.Context, msg *amqp.SyncMessage) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping export deletion",
			"component", "worker", "expense_id", msg.ExpenseID)
		return nil
	}

	if err := w.remover.Remove(ctx, msg.ExpenseID); err != nil {
		return fmt.Errorf("remove exported row: %w", err)
	}

	slog.InfoContext(ctx, "Removed exported expense",
		"component", "worker", "expense_id", msg.ExpenseID)
	return nil
}
