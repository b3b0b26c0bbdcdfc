// Package logging provides the mart's component-prefixed logger, built on
// the standard library log package the same way the donor service logs
// (see services/dal-service/main.go): no structured logging library
// appears anywhere in this module's dependency graph.
package logging

import (
	"log"
	"os"
)

// Logger prefixes every line with a component tag, e.g. "[worker-3]" or
// "[journal]".
type Logger struct {
	prefix string
	std    *log.Logger
}

// New creates a Logger for the given component name.
func New(component string) *Logger {
	return &Logger{
		prefix: "[" + component + "] ",
		std:    log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Logger) Printf(format string, args ...interface{}) {
	l.std.Printf(l.prefix+format, args...)
}

func (l *Logger) Println(args ...interface{}) {
	l.std.Print(append([]interface{}{l.prefix}, args...)...)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.std.Fatalf(l.prefix+format, args...)
}
