// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// levelRouter writes INFO/WARN (and below) to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout io.Writer
	stderr io.Writer
}

func (lr levelRouter) Write(p []byte) (int, error) {
	return lr.stdout.Write(p)
}

func (lr levelRouter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level != zerolog.NoLevel {
		return lr.stderr.Write(p)
	}
	return lr.stdout.Write(p)
}

// Options configures Setup. Stdout and Stderr default to the process streams.
type Options struct {
	Level  string // zerolog level name, "info" when empty
	Format string // "json" or "console"
	File   string // optional file receiving every level
	Stdout io.Writer
	Stderr io.Writer
}

// Setup builds the logger, installs it as the global and context-default
// logger and returns it with a cleanup function closing the log file.
func Setup(opts Options) (zerolog.Logger, func(), error) {
	cleanup := func() {}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), cleanup, fmt.Errorf("parsing log level: %w", err)
		}
		level = parsed
	}

	stdoutW, stderrW := opts.Stdout, opts.Stderr
	if stdoutW == nil {
		stdoutW = os.Stdout
	}
	if stderrW == nil {
		stderrW = os.Stderr
	}
	if opts.Format == "console" {
		stdoutW = zerolog.ConsoleWriter{Out: stdoutW, NoColor: true}
		stderrW = zerolog.ConsoleWriter{Out: stderrW, NoColor: true}
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), cleanup, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(stdoutW, f)
		stderrW = io.MultiWriter(stderrW, f)
	}

	logger := zerolog.New(levelRouter{stdout: stdoutW, stderr: stderrW}).
		Level(level).
		With().Timestamp().Logger()

	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger, cleanup, nil
}
