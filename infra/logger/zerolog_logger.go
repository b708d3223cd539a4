package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the core Logger interface.
type ZerologLogger struct {
	z zerolog.Logger
}

// NewZerologLogger creates a component-tagged logger writing JSON lines to
// stdout. With APP_ENV=dev entries render through a human-readable console
// writer instead.
func NewZerologLogger(component string) Logger {
	var w io.Writer = os.Stdout
	if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	return FromZerolog(z)
}

// FromZerolog wraps an existing zerolog.Logger, for callers that manage
// their own output or context fields.
func FromZerolog(z zerolog.Logger) Logger {
	return &ZerologLogger{z: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.z.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.z.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.z.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.z.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.z.Error().Msgf(format, args...)
}
