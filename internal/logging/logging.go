package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const LogFileName = "liketerm.log"

type Options struct {
	Dir    string
	Format string
	Level  string
}

// NewLogger writes to <Dir>/liketerm.log because the terminal belongs to the UI.
// The returned closer releases the file.
func NewLogger(opts Options) (*logrus.Logger, io.Closer, error) {
	if err := os.MkdirAll(opts.Dir, 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(opts.Dir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger, err := newLogger(file, opts)
	if err != nil {
		file.Close()
		return nil, nil, err
	}

	return logger, file, nil
}

// NewConsoleLogger is used by the headless commands.
func NewConsoleLogger(opts Options) (*logrus.Logger, error) {
	return newLogger(os.Stderr, opts)
}

func newLogger(out io.Writer, opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	switch opts.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	default:
		return nil, fmt.Errorf("unknown log format: %s", opts.Format)
	}

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	return logger, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
