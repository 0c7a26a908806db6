package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes leveled, printf-style messages to the terminal, a rotated
// log file, or both. Child loggers created through Named share the
// parent's writer.
type Logger struct {
	mu     *sync.Mutex
	writer io.Writer

	Name  string
	Level LogLevel

	TimeFormat string
	File       string
	NoColor    bool
	JSON       bool
	NoTerminal bool
	Rotation   *LoggerRotation
}

type LoggerRotation struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
	Message   string `json:"message"`
}

func NewLogger(name string, level LogLevel, file string, noTerminal bool) *Logger {
	l := &Logger{
		mu:         &sync.Mutex{},
		Name:       name,
		Level:      level,
		File:       file,
		NoTerminal: noTerminal,

		TimeFormat: "2006-01-02 15:04:05",
		Rotation: &LoggerRotation{
			MaxSize:    128,
			MaxBackups: 5,
			MaxAge:     16,
			Compress:   false,
		},
	}

	l.setupWriter()

	return l
}

// NewWriterLogger creates an uncolored logger that writes to w only.
func NewWriterLogger(name string, level LogLevel, w io.Writer) *Logger {
	return &Logger{
		mu:         &sync.Mutex{},
		writer:     w,
		Name:       name,
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
		NoTerminal: true,
	}
}

// Discard returns a logger that drops every message.
func Discard() *Logger {
	return NewWriterLogger("", Off, io.Discard)
}

func (l *Logger) setupWriter() {
	var writers []io.Writer

	if !l.NoTerminal {
		writers = append(writers, os.Stderr)
	}

	if l.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    l.Rotation.MaxSize,
			MaxBackups: l.Rotation.MaxBackups,
			MaxAge:     l.Rotation.MaxAge,
			Compress:   l.Rotation.Compress,
		})
	}

	switch len(writers) {
	case 0:
		l.writer = io.Discard
	case 1:
		l.writer = writers[0]
	default:
		l.writer = io.MultiWriter(writers...)
	}
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return l != nil && l.Level != Off && level >= l.Level
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	timestamp := time.Now().Format(l.TimeFormat)
	formatted := fmt.Sprintf(msg, args...)

	l.mu.Lock()
	if l.JSON {
		entry := logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Service:   l.Name,
			Message:   formatted,
		}

		bytes, _ := json.Marshal(entry)
		fmt.Fprintf(l.writer, "%s\n", bytes)
	} else {
		prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
		if l.Name != "" {
			prefix = fmt.Sprintf("%s [%s]", prefix, l.Name)
		}

		if !l.NoTerminal && !l.NoColor {
			fmt.Fprintf(l.writer, "%s%s %s%s\n", level.ansi(), prefix, formatted, ansiReset)
		} else {
			fmt.Fprintf(l.writer, "%s %s\n", prefix, formatted)
		}
	}
	l.mu.Unlock()

	if level == Fatal {
		os.Exit(1)
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(Debug, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(Info, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(Warn, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(Error, msg, args...)
}

func (l *Logger) Fatal(msg string, args ...any) {
	l.log(Fatal, msg, args...)
}

// Named returns a child logger called "<parent>/<name>".
func (l *Logger) Named(name string) *Logger {
	child := *l
	if l.Name != "" {
		child.Name = fmt.Sprintf("%s/%s", l.Name, name)
	} else {
		child.Name = name
	}
	return &child
}
