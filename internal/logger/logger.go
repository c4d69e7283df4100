package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// InitLogger returns a console logger outside production and a JSON logger in it.
func InitLogger(production bool, level string) zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if production {
		out = os.Stderr
	}
	return New(out, level)
}

func New(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
