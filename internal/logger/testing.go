package logger

import (
	"bytes"
	"log/slog"
	"os"
	"sync"
)

// NewTestLogger creates a logger for tests.
// Output is limited to warnings unless TUNESTREAM_TEST_DEBUG is set.
func NewTestLogger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("TUNESTREAM_TEST_DEBUG") != "" {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// Buffer collects log output for assertions. It is safe for concurrent writes.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewCaptureLogger creates an info-level text logger writing into a Buffer.
func NewCaptureLogger() (*slog.Logger, *Buffer) {
	buf := &Buffer{}
	return NewLogger(Config{Level: slog.LevelInfo, Format: "text", Output: buf}), buf
}
