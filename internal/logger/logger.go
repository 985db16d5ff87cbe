// File: internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/whatcher1074/helloworld/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// stdout is where console output goes. Tests swap it.
var stdout io.Writer = os.Stdout

// Logger provides structured logging with optional file rotation.
type Logger struct {
	zl      zerolog.Logger
	rotator *lumberjack.Logger
}

// New creates a Logger from the log section of the config.
func New(cfg config.LogConfig) (*Logger, error) {
	l := &Logger{}

	mode := strings.ToLower(cfg.Mode)

	var writers []io.Writer
	switch mode {
	case "file", "both":
		rotator, err := newRotator(cfg)
		if err != nil {
			return nil, err
		}
		l.rotator = rotator
		writers = append(writers, rotator)
		if mode == "both" {
			writers = append(writers, consoleWriter(cfg.JSON))
		}
	default:
		writers = append(writers, consoleWriter(cfg.JSON))
	}

	var output io.Writer
	if len(writers) == 1 {
		output = writers[0]
	} else {
		output = zerolog.MultiLevelWriter(writers...)
	}

	l.zl = zerolog.New(output).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
	return l, nil
}

func consoleWriter(useJSON bool) io.Writer {
	if useJSON {
		return stdout
	}
	return zerolog.ConsoleWriter{
		Out:        stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return zerolog.WarnLevel
	case "":
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

// Zerolog returns the underlying logger for packages that take one directly.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// Info starts an informational event.
func (l *Logger) Info() *zerolog.Event {
	return l.zl.Info()
}

// Error starts an error event.
func (l *Logger) Error() *zerolog.Event {
	return l.zl.Error()
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.zl.Error().Msgf(format, v...)
}

// Rotate forces a rotation of the log file. A no-op in console mode.
func (l *Logger) Rotate() error {
	if l.rotator == nil {
		return nil
	}
	return l.rotator.Rotate()
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}
