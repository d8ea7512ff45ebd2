// Package logx builds the structured slog.Handler cmd/ksdecode and
// pkg/engine log through, and the pflag-backed Config that wires its
// level/format to CLI flags.
package logx

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format is a supported log output format.
type Format string

const (
	// FormatJSON renders each record as a JSON object.
	FormatJSON Format = "json"
	// FormatLogfmt renders each record as logfmt key=value pairs.
	FormatLogfmt Format = "logfmt"
)

// NewHandler builds a slog.Handler writing to w at level in format.
func NewHandler(w io.Writer, level slog.Level, format Format) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// NewHandlerFromStrings parses levelStr and formatStr and builds the
// corresponding handler writing to w.
func NewHandlerFromStrings(w io.Writer, levelStr, formatStr string) (slog.Handler, error) {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}
	return NewHandler(w, level, format), nil
}

// ParseLevel parses a log level name (error, warn, info, debug).
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	default:
		return 0, fmt.Errorf("logx: unknown log level %q", level)
	}
}

// ParseFormat parses a log format name (json, logfmt, text as an
// alias for logfmt).
func ParseFormat(format string) (Format, error) {
	switch strings.ToLower(format) {
	case "json":
		return FormatJSON, nil
	case "logfmt", "text", "":
		return FormatLogfmt, nil
	default:
		return "", fmt.Errorf("logx: unknown log format %q", format)
	}
}

// GetAllLevelStrings lists the recognized level names, for CLI help
// text and shell completion.
func GetAllLevelStrings() []string {
	return []string{"error", "warn", "info", "debug"}
}

// GetAllFormatStrings lists the recognized format names, for CLI help
// text and shell completion.
func GetAllFormatStrings() []string {
	return []string{"json", "logfmt"}
}

// Discard returns a logger that drops every record, for tests and
// library callers that haven't configured logging.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
