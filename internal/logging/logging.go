// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger. format is "json" (default) or "console".
func Setup(debug bool, format string) {
	SetupWithWriter(os.Stderr, debug, format)
}

// SetupWithWriter is Setup with an explicit destination.
func SetupWithWriter(w io.Writer, debug bool, format string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	out := w
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "sitebot").Logger()
	// log.Ctx falls back to the global logger outside of HTTP requests.
	zerolog.DefaultContextLogger = &log.Logger
}
