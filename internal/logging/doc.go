// Package logging constructs the slog loggers used across bilisum.
//
// Two output formats are supported: a human-oriented console format used by
// the CLI and a JSON format for log files. Components attach themselves via
// WithComponent so every record carries a stable component field.
package logging
