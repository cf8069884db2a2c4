package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. Production deployments emit
// JSON for the log pipeline regardless of LOG_FORMAT; development keeps
// readable text output unless JSON is asked for explicitly.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
