// Package logger provides the structured slog-based logging used across the
// bot: named component channels, request-id propagation through context,
// debug sampling, and KV/JSON output with a stable key order.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"collectbot/core/buildinfo"
	coreconfig "collectbot/core/config"
)

var (
	initOnce   sync.Once
	shutdownMu sync.Mutex
	shutdowned bool

	logWriter  *asyncWriter
	logClosers []io.Closer

	levelVar slog.LevelVar

	debugSampler = newRatioSampler(1, 1)

	// L is the base logger; component channels below derive from it.
	L *slog.Logger

	// TG logs Telegram transport events.
	TG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
	// DB logs database events.
	DB *slog.Logger
	// MIG logs migration events.
	MIG *slog.Logger
	// FLOW logs dialog flow transitions.
	FLOW *slog.Logger
	// SVC logs domain service activity.
	SVC *slog.Logger
)

func init() {
	// Safe defaults so channels are usable before InitLogger runs (tests).
	wireComponents(slog.Default())
	L = slog.Default()
}

// InitLogger configures the global structured logger. It may be called only once.
func InitLogger(cfg *coreconfig.Config) error {
	var initErr error
	initOnce.Do(func() {
		level := selectLevel(cfg)
		levelVar.Set(level)
		debugSampler.Set(parseRatioSpec(cfg.Logging.DebugSample))

		outputs, closers, err := buildOutputs(cfg)
		if err != nil {
			initErr = err
			return
		}
		logClosers = closers
		logWriter = newAsyncWriter(outputs, 64*1024)

		handler := newStructuredHandler(handlerConfig{
			level:  &levelVar,
			writer: logWriter,
			format: selectFormat(cfg),
		})

		L = slog.New(handler)
		slog.SetDefault(L)
		wireComponents(L)
		logStartup(cfg)
	})
	return initErr
}

func wireComponents(base *slog.Logger) {
	TG = base.With("component", "tg")
	TWire = base.With("component", "tg.wire")
	DB = base.With("component", "db")
	MIG = base.With("component", "db.migrate")
	FLOW = base.With("component", "flow")
	SVC = base.With("component", "service")
}

func logStartup(cfg *coreconfig.Config) {
	attrs := []slog.Attr{
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
	}
	if cfg != nil {
		attrs = append(attrs, slog.String("cfg_profile", cfg.Logging.Profile))
	}
	L.LogAttrs(context.Background(), slog.LevelInfo, "startup", attrs...)
}

// Shutdown flushes buffered log output and closes opened sinks.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutdowned {
		return nil
	}
	shutdowned = true

	var first error
	if logWriter != nil {
		if err := logWriter.Close(); err != nil {
			first = err
		}
	}
	for _, c := range logClosers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func selectLevel(cfg *coreconfig.Config) slog.Level {
	lv := ""
	if cfg != nil {
		lv = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	}
	switch lv {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func selectFormat(cfg *coreconfig.Config) logFormat {
	if cfg != nil && strings.EqualFold(strings.TrimSpace(cfg.Logging.Format), "json") {
		return formatJSON
	}
	return formatKV
}

func buildOutputs(cfg *coreconfig.Config) ([]io.Writer, []io.Closer, error) {
	outputs := []io.Writer{os.Stdout}
	var closers []io.Closer

	if cfg == nil || cfg.Logging.Dir == "" || cfg.Logging.BotFile == "" {
		return outputs, closers, nil
	}
	if err := os.MkdirAll(cfg.Logging.Dir, 0o755); err != nil {
		return nil, nil, err
	}
	path := filepath.Join(cfg.Logging.Dir, cfg.Logging.BotFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	outputs = append(outputs, f)
	closers = append(closers, f)
	return outputs, closers, nil
}

// Background returns a fresh context carrying the base logger.
func Background() context.Context {
	return WithLogger(context.Background(), L)
}

// Component returns a logger bound to the given component name.
func Component(name string) *slog.Logger {
	if L == nil {
		return slog.Default().With("component", name)
	}
	return L.With("component", name)
}

// LogEvent emits an event through the provided logger, enriching it with
// context metadata (rid, update/user/chat ids, handler).
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = L
	}
	if logg == nil {
		return
	}
	attrs = append(contextAttrs(ctx), attrs...)
	logg.LogAttrs(ctx, level, event, attrs...)
}

// Event emits an event for a named component.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

// Debug emits a debug event for a named component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info emits an info event for a named component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn emits a warning event for a named component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error emits an error event for a named component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug event should be logged.
func ShouldSampleDebug() bool {
	if levelVar.Level() > slog.LevelDebug {
		return false
	}
	return debugSampler.Allow()
}
