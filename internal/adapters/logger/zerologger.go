package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// ZerologLogger implements the ports.Logger interface on top of zerolog,
// producing structured JSON lines for log aggregation.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger creates a zerolog-backed logger writing JSON to stderr.
func NewZerologLogger(level LogLevel) *ZerologLogger {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	switch level {
	case LevelDebug:
		zl = zl.Level(zerolog.DebugLevel)
	case LevelInfo:
		zl = zl.Level(zerolog.InfoLevel)
	case LevelWarn:
		zl = zl.Level(zerolog.WarnLevel)
	case LevelError:
		zl = zl.Level(zerolog.ErrorLevel)
	}
	return &ZerologLogger{logger: zl}
}

func withFields(e *zerolog.Event, fields []map[string]interface{}) *zerolog.Event {
	if len(fields) > 0 && fields[0] != nil {
		e = e.Fields(fields[0])
	}
	return e
}

// Debug logs a message at Debug level.
func (l *ZerologLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	withFields(l.logger.Debug(), fields).Msg(msg)
}

// Info logs a message at Info level.
func (l *ZerologLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	withFields(l.logger.Info(), fields).Msg(msg)
}

// Warn logs a message at Warning level.
func (l *ZerologLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	withFields(l.logger.Warn(), fields).Msg(msg)
}

// Error logs an error message at Error level.
func (l *ZerologLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	withFields(l.logger.Error().Err(err), fields).Msg(msg)
}
