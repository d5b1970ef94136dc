package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the process-wide zerolog Logger.
// APP_ENV=dev (or development) uses a human-friendly console writer;
// anything else emits JSON lines.
func NewLogger(env string) zerolog.Logger {
	zerolog.DurationFieldUnit = time.Millisecond
	if env == "dev" || env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
