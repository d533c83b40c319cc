package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

var (
	once   sync.Once
	mu     sync.RWMutex
	logger *slog.Logger
	level  = new(slog.LevelVar)
)

// Configure initializes the shared logger on stderr. Stdout is reserved for
// verdict lines. A terminal gets text output, anything else gets JSON. It is
// safe to call multiple times.
func Configure() *slog.Logger {
	once.Do(func() {
		SetOutput(os.Stderr)
	})
	return Logger()
}

// SetOutput replaces the shared logger with one writing to w.
func SetOutput(w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	mu.Lock()
	logger = slog.New(handler)
	mu.Unlock()
}

// SetDebug toggles debug level output.
func SetDebug(debug bool) {
	if debug {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// Logger returns the configured slog logger, configuring it on first use if necessary.
func Logger() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		return Configure()
	}
	return l
}
