// Package rlog wraps charmbracelet/log behind a small Logger interface
// that the clone engine and the CLI log through with key/value fields
// (e.g. phase, bytes_done). The teacher logs the equivalent information through
// text_color_set/dw_printf pairs scattered across src/*.go; this replaces
// that with structured fields on a normal slog-style logger.
package rlog

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the interface the rest of the module depends on, so tests can
// substitute a buffering logger without importing charmbracelet/log.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	With(keyvals ...interface{}) Logger
}

type charmLogger struct {
	l *log.Logger
}

func (c *charmLogger) Debug(msg string, keyvals ...interface{}) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...interface{})  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...interface{})  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...interface{}) { c.l.Error(msg, keyvals...) }

func (c *charmLogger) With(keyvals ...interface{}) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

// New returns a Logger for the given subsystem name ("engine", "codec",
// "transport", ...), writing to stderr at the given level.
func New(subsystem string, level log.Level) Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
		Level:           level,
		Prefix:          subsystem,
	})
	return &charmLogger{l: l}
}

// Discard returns a Logger that drops everything, for tests that don't care
// about log output.
func Discard() Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{})
	l.SetLevel(log.FatalLevel + 1)
	return &charmLogger{l: l}
}
