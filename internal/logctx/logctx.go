// Package logctx is the debug-logging seam shared by the connection state
// machine (client) and the router, mirroring the *log.Logger-over-
// io.Writer idiom of Client.debug in the teacher's client.go.
package logctx

import (
	"io"
	"log"
)

// Logger wraps a *log.Logger so callers can hold an unset *Logger (nil)
// safely: every method is a no-op in that case, same as the teacher's
// io.Discard-backed debug logger when Config.Debug is unset.
type Logger struct {
	*log.Logger
}

// New builds a Logger writing to w with the conventional debug prefix.
func New(w io.Writer) *Logger {
	return &Logger{log.New(w, "debug:", log.Ltime|log.Lshortfile)}
}

// Printf logs a formatted line, or does nothing if l is nil.
func (l *Logger) Printf(format string, v ...any) {
	if l == nil || l.Logger == nil {
		return
	}
	l.Logger.Printf(format, v...)
}

// Print logs v, or does nothing if l is nil.
func (l *Logger) Print(v ...any) {
	if l == nil || l.Logger == nil {
		return
	}
	l.Logger.Print(v...)
}
