// Package logging builds the slog loggers used across Cardbox.
//
// It provides a console handler for interactive terminals (TTY-aware, level
// coloring) and a JSON handler for log files and non-interactive use, plus a
// progress sampler that thins out the per-chunk progress events emitted
// during backup and restore. Construct loggers through New or NewFromConfig
// so every component shares the same output and level handling.
package logging
