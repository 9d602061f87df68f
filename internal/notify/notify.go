// Package notify defines the outbound notification contract. The engine
// only decides what to say and how urgently; delivery (toasts, digests)
// belongs to whatever sink is plugged in.
package notify

import (
	"context"
	"log/slog"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one user-facing message. DurationMS is a display hint
// for the consuming UI, not a delivery timeout.
type Notification struct {
	Severity   Severity `json:"severity"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	DurationMS int      `json:"duration_ms"`
}

// Sink consumes notifications. Implementations must not block the
// calling request beyond their own internal timeouts.
type Sink interface {
	Publish(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the structured log. It is the default
// sink when no broker is configured and never fails.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, n Notification) error {
	level := slog.LevelInfo
	switch n.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	}
	slog.Log(ctx, level, "Notification",
		"component", "notify",
		"title", n.Title,
		"body", n.Body,
		"duration_ms", n.DurationMS)
	return nil
}
