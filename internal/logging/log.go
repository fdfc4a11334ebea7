// Package logging provides named, levelled loggers on top of the standard
// library logger. Every line carries the component name so output from the
// query engine, stores and HTTP layer can be told apart:
//
//	l := logging.For("store.users")
//	l.Infof("loaded %d records", n)
//	l.Debugf("selection %+v", sel) // printed only when debug is enabled
//
// Debug output is off by default and can be enabled globally (SetDebug) or
// per component (EnableDebugFor).
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
)

const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelDebug = "DEBUG"
)

type Logger struct {
	name string
	std  *log.Logger
}

var (
	debugAll atomic.Bool
	debugFor sync.Map // name -> *atomic.Bool
	loggers  sync.Map // name -> *Logger
	outputMu sync.RWMutex
	output   io.Writer = os.Stderr
)

// For returns the logger for a component, creating it on first use.
func For(name string) *Logger {
	if name == "" {
		name = "app"
	}
	if l, ok := loggers.Load(name); ok {
		return l.(*Logger)
	}
	outputMu.RLock()
	w := output
	outputMu.RUnlock()
	l := &Logger{name: name, std: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
	actual, _ := loggers.LoadOrStore(name, l)
	return actual.(*Logger)
}

// SetOutput redirects every logger, existing and future, to w.
func SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	outputMu.Lock()
	output = w
	outputMu.Unlock()
	loggers.Range(func(_, v any) bool {
		v.(*Logger).std.SetOutput(w)
		return true
	})
}

func SetDebug(enabled bool) {
	debugAll.Store(enabled)
}

func EnableDebugFor(name string) {
	v, _ := debugFor.LoadOrStore(name, &atomic.Bool{})
	v.(*atomic.Bool).Store(true)
}

func DisableDebugFor(name string) {
	if v, ok := debugFor.Load(name); ok {
		v.(*atomic.Bool).Store(false)
	}
}

func DebugEnabled(name string) bool {
	if debugAll.Load() {
		return true
	}
	if v, ok := debugFor.Load(name); ok {
		return v.(*atomic.Bool).Load()
	}
	return false
}

func (l *Logger) Name() string {
	return l.name
}

func (l *Logger) emit(level, msg string) {
	l.std.Printf("%s [%s] %s", level, l.name, msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.emit(LevelInfo, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.emit(LevelWarn, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.emit(LevelError, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) {
	if !DebugEnabled(l.name) {
		return
	}
	l.emit(LevelDebug, fmt.Sprintf(format, args...))
}

// Fatalf logs at error level and exits the process.
func (l *Logger) Fatalf(format string, args ...any) {
	l.emit(LevelError, fmt.Sprintf(format, args...))
	os.Exit(1)
}
