package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs the service logger. Development gets human-readable
// console output at debug level; everything else gets JSON at info level.
func NewLogger(appEnv string) zerolog.Logger {
	if appEnv == "development" {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return newLogger(out, zerolog.DebugLevel)
	}
	return newLogger(os.Stdout, zerolog.InfoLevel)
}

// newLogger stamps every event with the service name so log lines stay
// attributable once they are shipped off the host.
func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "diarist").
		Logger()
}

// Logger aliases zerolog.Logger so packages outside infra depend on the
// logging contract without importing the third-party module directly.
type Logger = zerolog.Logger
