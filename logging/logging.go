// Package logging wraps the standard library's log.Logger with a per-
// component prefix, the shape the worker pool and shutdown coordinator use
// for their own diagnostic output (distinct from the text a command prints
// as its result, which goes straight to the shell's output writer).
package logging

import (
	"io"
	"log"
	"os"
)

// Logger is a minimal leveled-by-convention wrapper: callers choose Info or
// Error explicitly rather than this package inferring a level from content.
type Logger struct {
	*log.Logger
}

// New builds a Logger writing to out with component prefixed onto every
// line, e.g. New(os.Stderr, "worker[2]").
func New(out io.Writer, component string) *Logger {
	return &Logger{Logger: log.New(out, component+": ", log.LstdFlags|log.Lmsgprefix)}
}

// Default writes to os.Stderr, used where a caller doesn't care to route
// diagnostics anywhere else.
func Default(component string) *Logger {
	return New(os.Stderr, component)
}

// Info logs a routine diagnostic message.
func (l *Logger) Info(msg string) {
	l.Print(msg)
}

// Infof logs a routine diagnostic message with formatting.
func (l *Logger) Infof(format string, args ...any) {
	l.Printf(format, args...)
}

// Error logs a failure that didn't stop the caller from continuing.
func (l *Logger) Error(msg string) {
	l.Print("error: " + msg)
}

// Errorf logs a failure that didn't stop the caller from continuing, with
// formatting.
func (l *Logger) Errorf(format string, args ...any) {
	l.Printf("error: "+format, args...)
}
