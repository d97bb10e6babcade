package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns the service logger. Development gets human readable console
// output, every other environment gets JSON lines.
func New(environment, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(environment, "development") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("app", "catalog").Logger()
}
