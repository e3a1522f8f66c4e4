package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// LogLevel controls which messages an ILogger emits.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

// String returns the fixed-width display name of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a textual level ("debug", "info", "warn", "error")
// to a LogLevel. Unknown values default to LevelInfo.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warning", "warn":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ILogger is the logging interface consumed by all dLock components.
type ILogger interface {
	// Debugf logs a message at debug level.
	Debugf(format string, args ...any)
	// Infof logs a message at info level.
	Infof(format string, args ...any)
	// Warningf logs a message at warning level.
	Warningf(format string, args ...any)
	// Errorf logs a message at error level.
	Errorf(format string, args ...any)
	// SetLevel changes the minimum level that is emitted.
	SetLevel(level LogLevel)
}

// --------------------------------------------------------------------------
// Standard Implementation
// --------------------------------------------------------------------------

// stdLogger writes formatted lines in the form
//
//	2025/01/02 15:04:05 INFO  | lockmgr         | message
//
// to the configured writer.
type stdLogger struct {
	name   string
	level  atomic.Int32
	logger *log.Logger
}

// NewStdLogger creates a logger named after the emitting component that
// writes to stdout at the given level.
func NewStdLogger(name string, level LogLevel) ILogger {
	return NewStdLoggerTo(os.Stdout, name, level)
}

// NewStdLoggerTo is like NewStdLogger but writes to w. Used by tests to
// capture output.
func NewStdLoggerTo(w io.Writer, name string, level LogLevel) ILogger {
	l := &stdLogger{
		name:   name,
		logger: log.New(w, "", log.Ldate|log.Ltime),
	}
	l.level.Store(int32(level))
	return l
}

func (l *stdLogger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *stdLogger) Debugf(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

func (l *stdLogger) Infof(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *stdLogger) Warningf(format string, args ...any) {
	l.log(LevelWarning, format, args...)
}

func (l *stdLogger) Errorf(format string, args ...any) {
	l.log(LevelError, format, args...)
}

func (l *stdLogger) log(level LogLevel, format string, args ...any) {
	if level < LogLevel(l.level.Load()) {
		return
	}
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-15s | %s", level, l.name, message)
}
