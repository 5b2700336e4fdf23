package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Zerolog implements the Logger interface on top of a zerolog.Logger.
// Messages are written at debug level.
type Zerolog struct {
	Logger zerolog.Logger
}

// Log a line at debug level
func (l Zerolog) Log(msg string) {
	l.Logger.Debug().Msg(msg)
}

// New creates a zerolog logger writing to stderr.
// When json is false the output is formatted for a console.
func New(json bool, verbose bool) zerolog.Logger {
	return NewWithWriter(os.Stderr, json, verbose)
}

// NewWithWriter creates a zerolog logger writing to w
func NewWithWriter(w io.Writer, json bool, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if json {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
