// Package log is a small leveled key/value logger.
//
// A line looks like:
//
//	2025-01-01T00:00:00Z [LEVEL] msg key=value ...
//
// The TUI owns the terminal, so callers running it redirect output with SetOutput.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel accepts the names printed by Level.String, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// Logger writes leveled lines to a single writer.
type Logger struct {
	mu       sync.Mutex
	out      *stdlog.Logger
	minLevel Level
	now      func() time.Time
}

// New returns a logger writing to w at LevelInfo.
func New(w io.Writer) *Logger {
	return &Logger{
		out:      stdlog.New(w, "", 0),
		minLevel: LevelInfo,
		now:      time.Now,
	}
}

var (
	std     *Logger
	stdOnce sync.Once
)

// Default returns the process-wide logger, writing to stderr until redirected.
func Default() *Logger {
	stdOnce.Do(func() {
		std = New(os.Stderr)
	})
	return std
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.SetOutput(w)
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv...) }

// Error logs msg with err prepended to the key/value list.
func (l *Logger) Error(msg string, err error, kv ...any) {
	extended := append([]any{"err", err}, kv...)
	l.log(LevelError, msg, extended...)
}

func (l *Logger) log(level Level, msg string, kv ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.minLevel {
		return
	}

	var b strings.Builder
	b.WriteString(l.now().Format(time.RFC3339Nano))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)
	writeKVs(&b, kv)

	l.out.Println(b.String())
}

// Expects pairs: key, value, key, value. A trailing odd value is ignored.
func writeKVs(b *strings.Builder, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(fmt.Sprint(kv[i+1]))
	}
}

func SetOutput(w io.Writer) { Default().SetOutput(w) }
func SetLevel(l Level)      { Default().SetLevel(l) }

func Debug(msg string, kv ...any)            { Default().Debug(msg, kv...) }
func Info(msg string, kv ...any)             { Default().Info(msg, kv...) }
func Warn(msg string, kv ...any)             { Default().Warn(msg, kv...) }
func Error(msg string, err error, kv ...any) { Default().Error(msg, err, kv...) }
