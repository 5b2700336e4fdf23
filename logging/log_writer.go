package logging

import (
	"strings"
	"sync"
)

// Logger logs messages
type Logger interface {
	Log(msg string)
}

// LoggerFunc adapts a function to the Logger interface
type LoggerFunc func(msg string)

// Log calls f
func (f LoggerFunc) Log(msg string) {
	f(msg)
}

// LogWriter implements io.Writer by passing each complete line to the Logger.
// It is safe for concurrent use, so it can back a *log.Logger shared between goroutines.
type LogWriter struct {
	logger Logger
	mu     sync.Mutex
	sb     strings.Builder
}

// NewLogWriter creates a LogWriter using the logger provided
func NewLogWriter(logger Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

// Write buffers p and logs every line terminated by '\n'
func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range p {
		switch c {
		case '\n':
			w.logger.Log(w.sb.String())
			w.sb.Reset()
		case '\r':
		default:
			w.sb.WriteByte(c)
		}
	}
	return len(p), nil
}

// Flush logs a pending partial line
func (w *LogWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sb.Len() == 0 {
		return nil
	}
	w.logger.Log(w.sb.String())
	w.sb.Reset()
	return nil
}
