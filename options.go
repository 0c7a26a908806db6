package typedfs

import "github.com/mwantia/typedfs/log"

type RootOptions struct {
	Logger        *log.Logger
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
}

type RootOption func(*RootOptions) error

func newDefaultRootOptions() *RootOptions {
	return &RootOptions{
		LogLevel: log.Warn,
	}
}

func (o *RootOptions) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.NewLogger("typedfs", o.LogLevel, o.LogFile, o.NoTerminalLog)
}

// WithLogger replaces the logger created from the other log options.
func WithLogger(logger *log.Logger) RootOption {
	return func(opts *RootOptions) error {
		opts.Logger = logger
		return nil
	}
}

func WithLogLevel(logLevel log.LogLevel) RootOption {
	return func(opts *RootOptions) error {
		opts.LogLevel = logLevel
		return nil
	}
}

func WithoutTerminalLog() RootOption {
	return func(opts *RootOptions) error {
		opts.NoTerminalLog = true
		return nil
	}
}

func WithLogFile(logFile string) RootOption {
	return func(opts *RootOptions) error {
		opts.LogFile = logFile
		return nil
	}
}
