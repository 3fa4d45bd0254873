package logger

import (
	"log/slog"
	"time"
)

// LogOperation logs a game operation execution
func LogOperation(name string, playerID string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "game"),
		slog.String("name", name),
		slog.String("player_id", playerID),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Operation failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Operation executed", attrs...)
	}
}

// LogQuery logs store operations
func LogQuery(query string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "db"),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Query failed", append(attrs,
			slog.String("query", query),
			slog.Any("error", err),
		)...)
	} else {
		slog.Info("Query executed", append(attrs,
			slog.String("query", query),
		)...)
	}
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
