// Package logging builds the process logger. The logger is constructed
// once at program entry and passed explicitly into every stage; core
// packages never reach for a global.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures logger construction.
type Options struct {
	Level string
	File  string
}

// New builds a console logger on stderr, optionally teeing JSON lines to
// a file. The returned closer flushes and closes the file, if any.
func New(opts Options) (zerolog.Logger, func(), error) {
	level := parseLevel(opts.Level)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	var writer io.Writer = console
	closer := func() {}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), closer, err
		}
		writer = zerolog.MultiLevelWriter(console, f)
		closer = func() { f.Close() }
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
