// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"log"
	"sync/atomic"
)

type logFunc func(format string, v ...any)

var current atomic.Value

func init() {
	current.Store(logFunc(log.Printf))
}

// Logf writes a diagnostic message through the installed logger. It defaults
// to log.Printf.
func Logf(format string, v ...any) {
	current.Load().(logFunc)(format, v...)
}

// SetLogger replaces the package logger. Passing nil mutes it.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		current.Store(logFunc(func(string, ...any) {}))
		return
	}
	current.Store(logFunc(f))
}
