package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Options controls logger construction.
type Options struct {
	Level string
	// Text switches from JSON to human-readable output, used by the CLI.
	Text   bool
	Output io.Writer
}

// NewLogger constructs a logrus logger configured with JSON output and the provided log level.
func NewLogger(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetReportCaller(false)
	logger.SetLevel(logrus.InfoLevel)

	if opts.Text {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	if opts.Output != nil {
		logger.SetOutput(opts.Output)
	} else {
		logger.SetOutput(os.Stdout)
	}

	if opts.Level == "" {
		return logger, nil
	}

	parsedLevel, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level: %s", opts.Level)
	}

	logger.SetLevel(parsedLevel)
	return logger, nil
}

// Discard returns a logger that drops every entry. Used by tests and optional wiring.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
