// Package logger provides the package-level structured logger used across
// bytedrop. It wraps log/slog with a line-oriented text handler for
// terminals and a JSON handler for log shippers.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	// level is shared by every handler built here, so SetLevel takes
	// effect without rebuilding the logger. Its zero value is INFO.
	level slog.LevelVar

	mu       sync.RWMutex
	output   io.Writer = os.Stdout
	format             = "text"
	useColor bool
	slogger  *slog.Logger
)

func init() {
	if f, ok := output.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	rebuild()
}

// rebuild swaps the logger for one matching the current output, format
// and color settings. Requires lock on mu.
func rebuild() {
	opts := &slog.HandlerOptions{Level: &level}
	if format == "json" {
		slogger = slog.New(slog.NewJSONHandler(output, opts))
	} else {
		slogger = slog.New(newTextHandler(output, opts, useColor))
	}
}

// parseLevel maps a config level name onto its slog level.
func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// Init initializes the logger with the given configuration.
// Output can be "stdout", "stderr", or a file path.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		output = os.Stdout
		useColor = isTerminal(os.Stdout.Fd())
	case "stderr":
		output = os.Stderr
		useColor = isTerminal(os.Stderr.Fd())
	default:
		// Assume it's a file path
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
		}
		output = f
		useColor = false // Files don't support color
	}

	if lv, ok := parseLevel(cfg.Level); ok {
		level.Set(lv)
	}
	if f := strings.ToLower(cfg.Format); f == "text" || f == "json" {
		format = f
	}

	rebuild()
	return nil
}

// InitWithWriter initializes the logger with a custom io.Writer.
// This is primarily useful for testing.
func InitWithWriter(w io.Writer, levelName, formatName string, enableColor bool) {
	mu.Lock()
	defer mu.Unlock()

	output = w
	useColor = enableColor
	if lv, ok := parseLevel(levelName); ok {
		level.Set(lv)
	}
	if f := strings.ToLower(formatName); f == "text" || f == "json" {
		format = f
	}

	rebuild()
}

// SetLevel sets the minimum log level. Unknown names are ignored.
// The change applies to the live logger immediately.
func SetLevel(name string) {
	if lv, ok := parseLevel(name); ok {
		level.Set(lv)
	}
}

// SetFormat sets the output format (text or json). Unknown names are
// ignored.
func SetFormat(name string) {
	f := strings.ToLower(name)
	if f != "text" && f != "json" {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	format = f
	rebuild()
}

// current returns the live slog logger.
func current() *slog.Logger {
	mu.RLock()
	l := slogger
	mu.RUnlock()
	return l
}

// Debug logs at debug level with structured fields
// Usage: Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Info logs at info level with structured fields
// Usage: Info("message", "key1", value1, "key2", value2)
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Warn logs at warn level with structured fields
// Usage: Warn("message", "key1", value1, "key2", value2)
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Error logs at error level with structured fields
// Usage: Error("message", "key1", value1, "key2", value2)
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}
