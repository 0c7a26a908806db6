package log

import (
	"fmt"
	"strings"
)

type LogLevel int

const (
	Debug LogLevel = iota
	Info
	Warn
	Error
	Fatal
	// Off suppresses every message, Fatal included.
	Off
)

func (l LogLevel) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	case Off:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ansi returns the terminal escape sequence used for messages of level l.
func (l LogLevel) ansi() string {
	switch l {
	case Debug:
		return "\033[34m"
	case Info:
		return "\033[32m"
	case Warn:
		return "\033[33m"
	case Error:
		return "\033[31m"
	case Fatal:
		return "\033[35m"
	default:
		return ansiReset
	}
}

const ansiReset = "\033[0m"

// Parse converts a level name such as "debug" or "WARN" into a LogLevel.
func Parse(level string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return Debug, nil
	case "INFO":
		return Info, nil
	case "WARN", "WARNING":
		return Warn, nil
	case "ERROR":
		return Error, nil
	case "FATAL":
		return Fatal, nil
	case "OFF", "NONE":
		return Off, nil
	default:
		return Info, fmt.Errorf("log: invalid level '%s'", level)
	}
}
