package helper

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. format "json" writes raw JSON lines,
// anything else a human readable console stream.
func NewLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if !strings.EqualFold(format, "json") {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
