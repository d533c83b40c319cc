package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// LineWriter fans verdict lines out to one or more writers. Each line is
// written whole, so lines from concurrent workers never interleave.
type LineWriter struct {
	mu      sync.Mutex
	writers []io.Writer
	err     error
}

// NewLineWriter returns a LineWriter writing to every w.
func NewLineWriter(writers ...io.Writer) *LineWriter {
	return &LineWriter{writers: writers}
}

// Log writes line followed by a newline. The first write error is kept and
// reported by Err; later lines are still attempted.
func (l *LineWriter) Log(line string) {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.writers {
		if _, err := w.Write(buf); err != nil && l.err == nil {
			l.err = err
		}
	}
}

// Err returns the first write error, if any.
func (l *LineWriter) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// OpenAppend opens path for appending, creating it and its directory if needed.
func OpenAppend(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return f, nil
}
