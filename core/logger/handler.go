package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

type logFormat string

const (
	formatKV   logFormat = "kv"
	formatJSON logFormat = "json"
)

// defaultKeyOrder pins the leading keys of every log line; remaining keys
// are appended alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status", "rid",
	"handler", "update_id", "chat_id", "user_id",
}

type handlerConfig struct {
	level  slog.Leveler
	writer *asyncWriter
	format logFormat
}

type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.format == "" {
		cfg.format = formatKV
	}
	return &structuredHandler{cfg: cfg}
}

// Enabled implements slog.Handler.
func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.cfg.level != nil {
		min = h.cfg.level.Level()
	}
	return level >= min
}

// Handle implements slog.Handler.
func (h *structuredHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, r.NumAttrs()+8)
	fields["ts"] = r.Time.Format(time.RFC3339Nano)
	fields["level"] = strings.ToLower(r.Level.String())
	fields["event"] = r.Message

	for _, attr := range h.attrs {
		h.collect(fields, attr, h.groups)
	}
	r.Attrs(func(attr slog.Attr) bool {
		h.collect(fields, attr, h.groups)
		return true
	})

	line, err := h.format(fields)
	if err != nil {
		return err
	}
	if h.cfg.writer == nil {
		return nil
	}
	return h.cfg.writer.Write(line)
}

// WithAttrs implements slog.Handler.
func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *structuredHandler) collect(fields map[string]any, attr slog.Attr, groups []string) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	val := attr.Value.Resolve()
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	if val.Kind() == slog.KindGroup {
		for _, nested := range val.Group() {
			h.collect(fields, nested, append(groups, attr.Key))
		}
		return
	}
	fields[key] = normalizeValue(val)
}

func normalizeValue(val slog.Value) any {
	switch val.Kind() {
	case slog.KindString:
		return val.String()
	case slog.KindInt64:
		return val.Int64()
	case slog.KindUint64:
		return val.Uint64()
	case slog.KindFloat64:
		return val.Float64()
	case slog.KindBool:
		return val.Bool()
	case slog.KindDuration:
		return RoundMS(val.Duration()).String()
	case slog.KindTime:
		return val.Time().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val.Any())
	}
}

func (h *structuredHandler) format(fields map[string]any) ([]byte, error) {
	keys := orderedKeys(fields)
	if h.cfg.format == formatJSON {
		ordered := make(map[string]any, len(fields))
		for _, k := range keys {
			ordered[k] = fields[k]
		}
		line, err := json.Marshal(ordered)
		if err != nil {
			return nil, err
		}
		return append(line, '\n'), nil
	}
	return formatKVLine(fields, keys), nil
}

func orderedKeys(fields map[string]any) []string {
	seen := make(map[string]bool, len(fields))
	keys := make([]string, 0, len(fields))
	for _, k := range defaultKeyOrder {
		if _, ok := fields[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(fields))
	for k := range fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func formatKVLine(fields map[string]any, keys []string) []byte {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValueKV(fields[k]))
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func formatValueKV(val any) string {
	s, ok := val.(string)
	if !ok {
		return fmt.Sprint(val)
	}
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if needsQuote(r) {
			return fmt.Sprintf("%q", s)
		}
	}
	return s
}

func needsQuote(r rune) bool {
	return r == ' ' || r == '"' || r == '=' || r == '\n' || r == '\t'
}
