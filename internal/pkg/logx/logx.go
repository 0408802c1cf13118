/*
Package logx wraps zerolog and owns the process-wide logger for the SmartComms server.

It configures the output format per environment (human-readable console output in
development, JSON in production) and exposes small helpers for the common levels so
callers outside HTTP handlers do not need to thread a logger around.
*/
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up the global zerolog instance. Development gets a colored console
// writer at Debug level; everything else emits JSON at Info level. All entries
// carry a Unix timestamp and the caller location.
func Init(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns the global zerolog.Logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// evenFields drops the field list when it is not made of key/value pairs,
// which would otherwise make zerolog panic.
func evenFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Str("log_level", level).
			Int("fields_count", len(fields)).
			Msg("Logx call received an odd number of fields. Fields ignored.")
		return nil
	}
	return fields
}

// Info logs at Info level with optional key/value fields.
func Info(msg string, fields ...any) {
	Logger().Info().
		Fields(evenFields("Info", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Warn logs at Warn level with optional key/value fields.
func Warn(msg string, fields ...any) {
	Logger().Warn().
		Fields(evenFields("Warn", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Error logs an error at Error level with optional key/value fields.
func Error(err error, msg string, fields ...any) {
	Logger().Error().
		Err(err).
		Fields(evenFields("Error", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Fatal logs at Fatal level and terminates the process.
func Fatal(err error, msg string, fields ...any) {
	Logger().Fatal().
		Err(err).
		Fields(evenFields("Fatal", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}
