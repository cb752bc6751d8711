package testutil

import "log/slog"

// Logger returns a logger that drops every record.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
