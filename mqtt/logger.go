package mqtt

import (
	"log"
	"os"
)

// Logger is the external sink every Client event is reported through. The
// default implementation wraps the standard library's log.Logger with the
// bracket-tagged line style this codebase uses throughout: a timestamp,
// the tag, then the fields space-separated
// ("[CLIENT_CONNECTED] client_id c1 url mqtt://127.0.0.1:1883").
type Logger interface {
	Event(msg string, fields ...any)
}

// stdLogger is the default Logger, a thin wrapper around log.Logger.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger returns a Logger that writes to os.Stderr with the standard
// library's default flags.
func NewStdLogger() Logger {
	return &stdLogger{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *stdLogger) Event(msg string, fields ...any) {
	if len(fields) == 0 {
		s.l.Print(msg)
		return
	}
	s.l.Println(append([]any{msg}, fields...)...)
}

// noopLogger discards every event. New substitutes it whenever
// WithLogger(nil) is used to silence a client explicitly.
type noopLogger struct{}

func (noopLogger) Event(string, ...any) {}
