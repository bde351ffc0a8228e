// Package logging builds the logrus loggers shared by the server, the
// facility locator and the background queue consumer.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger handed to components.
type Logger = *logrus.Entry

// Fields is a set of structured log fields.
type Fields = logrus.Fields

// NewLogger returns a JSON logger writing to stdout at the given level.
// Unknown levels fall back to info.
func NewLogger(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(ParseLevel(level))
	return l
}

// NewLoggerWithService returns an entry tagged with the service name so
// every line it writes carries a "service" field.
func NewLoggerWithService(service, level string) Logger {
	return NewLogger(level).WithField("service", service)
}

// ParseLevel maps LOG_LEVEL values to logrus levels.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything. Used as the default for
// components constructed without a logger and in tests.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return logrus.NewEntry(l)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
