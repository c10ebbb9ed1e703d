// Package logger provides the level-filtered console logger used across
// relayfix. Output is timestamped and colorized when writing to a TTY.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
)

// Logger writes timestamped, level-filtered messages to a writer. It is safe
// for concurrent use, though relayfix itself is single-threaded apart from
// the restart readiness poll.
type Logger struct {
	writer   io.Writer
	level    int
	mu       sync.Mutex
	colorize bool
}

// New creates a Logger writing to w at the given level. Valid levels: trace,
// debug, info, warn, error (case-insensitive); anything else means info.
// Color is enabled only when w is a terminal and NO_COLOR is unset.
func New(w io.Writer, level string) *Logger {
	return &Logger{
		writer:   w,
		level:    parseLevel(level),
		colorize: isTerminal(w),
	}
}

// Discard returns a logger that drops everything; handy for tests.
func Discard() *Logger {
	return &Logger{writer: io.Discard, level: levelError + 1}
}

func parseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *Logger) log(level int, tag string, c *color.Color, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	if l.colorize && c != nil {
		tag = c.Sprint(tag)
	}
	fmt.Fprintf(l.writer, "[%s] %s %s\n", timestamp, tag, msg)
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(levelDebug, "DEBUG", color.New(color.FgHiBlack), format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(levelInfo, "INFO ", color.New(color.FgCyan), format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(levelWarn, "WARN ", color.New(color.FgYellow), format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(levelError, "ERROR", color.New(color.FgRed), format, args...)
}
