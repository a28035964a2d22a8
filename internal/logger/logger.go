package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
)

var (
	mu      sync.RWMutex
	level   = new(slog.LevelVar)
	handler slog.Handler
)

func init() {
	handler = newTerminalHandler(os.Stderr)
}

// Setup configures the console level and, when path is not empty, an additional
// plain text log file that only receives INFO and above.
func Setup(lvl string, path string) (io.Closer, error) {
	level.Set(ParseLevel(lvl))

	console := newTerminalHandler(os.Stderr)
	if path == "" {
		set(console)
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		set(console)
		return io.NopCloser(nil), err
	}
	file := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})
	set(&fanout{handlers: []slog.Handler{console, file}})
	return f, nil
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// New returns a logger tagged with the component name. It follows later Setup calls.
func New(component string) *slog.Logger {
	return slog.New(&dynamic{}).With(slog.String("component", component))
}

func set(h slog.Handler) {
	mu.Lock()
	handler = h
	mu.Unlock()
	slog.SetDefault(slog.New(h))
}

func current() slog.Handler {
	mu.RLock()
	defer mu.RUnlock()
	return handler
}

func newTerminalHandler(w io.Writer) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		NoColor:    runtime.GOOS == "windows",
		Level:      level,
		TimeFormat: "15:04:05",
	})
}

// dynamic resolves the active handler on every record so package level loggers
// created before Setup pick up the configured output.
type dynamic struct {
	attrs []slog.Attr
	group string
}

func (d *dynamic) resolve() slog.Handler {
	h := current()
	if d.group != "" {
		h = h.WithGroup(d.group)
	}
	if len(d.attrs) > 0 {
		h = h.WithAttrs(d.attrs)
	}
	return h
}

func (d *dynamic) Enabled(ctx context.Context, l slog.Level) bool {
	return d.resolve().Enabled(ctx, l)
}

func (d *dynamic) Handle(ctx context.Context, r slog.Record) error {
	return d.resolve().Handle(ctx, r)
}

func (d *dynamic) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &dynamic{group: d.group}
	next.attrs = append(append(next.attrs, d.attrs...), attrs...)
	return next
}

func (d *dynamic) WithGroup(name string) slog.Handler {
	if d.group != "" {
		name = d.group + "." + name
	}
	return &dynamic{attrs: d.attrs, group: name}
}

type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h.WithAttrs(attrs))
	}
	return &fanout{handlers: hs}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h.WithGroup(name))
	}
	return &fanout{handlers: hs}
}
