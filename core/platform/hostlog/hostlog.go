// Package hostlog provides a swappable log sink for the outer
// (non-protocol) layers of this client: core/session and
// core/transport always log through logrus directly, but code above
// them (core/zenoh, cmd/zenohc) can pick a backend at runtime via
// ZENOH_LOG_BACKEND without depending on logrus's API.
package hostlog

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
)

// Logger is the minimal structured-logging surface this package
// exposes; both backends implement it.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// New builds a Logger for the named backend ("logrus" or "zerolog"),
// defaulting to logrus for any unrecognized value.
func New(backend string) Logger {
	if backend == "zerolog" {
		return zerologLogger{logger: zerolog.New(os.Stderr).With().Timestamp().Logger()}
	}
	return logrusLogger{logger: logrus.StandardLogger()}
}

// Default builds a Logger from the ZENOH_LOG_BACKEND environment
// variable, matching pkg/config's Logging.Backend knob.
func Default() Logger {
	return New(os.Getenv("ZENOH_LOG_BACKEND"))
}

type logrusLogger struct{ logger *logrus.Logger }

func (l logrusLogger) Debug(msg string, fields map[string]any) {
	l.logger.WithFields(logrus.Fields(fields)).Debug(msg)
}
func (l logrusLogger) Info(msg string, fields map[string]any) {
	l.logger.WithFields(logrus.Fields(fields)).Info(msg)
}
func (l logrusLogger) Warn(msg string, fields map[string]any) {
	l.logger.WithFields(logrus.Fields(fields)).Warn(msg)
}
func (l logrusLogger) Error(msg string, fields map[string]any) {
	l.logger.WithFields(logrus.Fields(fields)).Error(msg)
}

type zerologLogger struct{ logger zerolog.Logger }

func (l zerologLogger) event(e *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

func (l zerologLogger) Debug(msg string, fields map[string]any) { l.event(l.logger.Debug(), msg, fields) }
func (l zerologLogger) Info(msg string, fields map[string]any)  { l.event(l.logger.Info(), msg, fields) }
func (l zerologLogger) Warn(msg string, fields map[string]any)  { l.event(l.logger.Warn(), msg, fields) }
func (l zerologLogger) Error(msg string, fields map[string]any) { l.event(l.logger.Error(), msg, fields) }
