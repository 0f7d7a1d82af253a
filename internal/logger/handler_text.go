package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// promotedKeys are the domain fields rendered first on every line, in
// this order, so access-log entries stay scannable: the content key
// leads, then the client, then what was stored. Remaining attributes
// keep their call-site order after these.
var promotedKeys = []string{KeyContent, KeyClientIP, KeyMediaType, KeySize}

// textHandler renders records as single scannable lines:
//
//	[2006-01-02 15:04:05] [INFO] content posted key=aZ3bQ9x client_ip=203.0.113.7 size=42
//
// Values containing spaces or '=' (user agents, wrapped errors) are
// quoted so lines stay splittable on whitespace.
type textHandler struct {
	opts     *slog.HandlerOptions
	w        io.Writer
	mu       *sync.Mutex
	attrs    []slog.Attr
	useColor bool
}

// newTextHandler creates a textHandler writing to w.
func newTextHandler(w io.Writer, opts *slog.HandlerOptions, useColor bool) *textHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &textHandler{
		opts:     opts,
		w:        w,
		mu:       &sync.Mutex{},
		useColor: useColor,
	}
}

// Enabled reports whether the handler handles records at the given level
func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle formats and writes a log record
func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	// Build the line in a local buffer; only lock for the write.
	buf := make([]byte, 0, 128)
	buf = append(buf, '[')
	buf = r.Time.AppendFormat(buf, "2006-01-02 15:04:05")
	buf = append(buf, "] ["...)
	buf = append(buf, h.levelTag(r.Level)...)
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)

	// Promoted domain fields first, everything else in arrival order.
	for _, key := range promotedKeys {
		for _, a := range attrs {
			if a.Key == key {
				buf = h.appendAttr(buf, a)
			}
		}
	}
	for _, a := range attrs {
		if !isPromoted(a.Key) {
			buf = h.appendAttr(buf, a)
		}
	}

	buf = append(buf, '\n')

	h.mu.Lock()
	_, err := h.w.Write(buf)
	h.mu.Unlock()
	return err
}

func isPromoted(key string) bool {
	for _, k := range promotedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// levelTag returns the level name, colorized for terminals.
func (h *textHandler) levelTag(level slog.Level) string {
	var name, color string
	switch {
	case level < slog.LevelInfo:
		name, color = "DEBUG", colorGray
	case level < slog.LevelWarn:
		name, color = "INFO", colorGreen
	case level < slog.LevelError:
		name, color = "WARN", colorYellow
	default:
		name, color = "ERROR", colorRed
	}

	if !h.useColor {
		return name
	}
	return color + name + colorReset
}

// appendAttr formats and appends one key=value pair.
func (h *textHandler) appendAttr(buf []byte, a slog.Attr) []byte {
	if a.Equal(slog.Attr{}) {
		return buf
	}
	a.Value = a.Value.Resolve()

	buf = append(buf, ' ')
	if h.useColor {
		buf = append(buf, colorCyan...)
		buf = append(buf, a.Key...)
		buf = append(buf, colorReset...)
	} else {
		buf = append(buf, a.Key...)
	}
	buf = append(buf, '=')
	return append(buf, formatValue(a.Value)...)
}

// formatValue renders a slog.Value, quoting anything that would break
// whitespace-splitting of the line.
func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return quote(v.String())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return quote(fmt.Sprint(v.Any()))
	}
}

// quote wraps s in quotes when it is empty or contains characters that
// would break key=value parsing.
func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return strconv.Quote(s)
	}
	return s
}

// WithAttrs returns a new handler with additional pre-bound attrs
func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &textHandler{
		opts:     h.opts,
		w:        h.w,
		mu:       h.mu, // Share mutex with parent
		attrs:    append(append([]slog.Attr{}, h.attrs...), attrs...),
		useColor: h.useColor,
	}
}

// WithGroup returns a new handler with a group name.
// Groups are not rendered; attributes keep their keys.
func (h *textHandler) WithGroup(name string) slog.Handler {
	return h
}
