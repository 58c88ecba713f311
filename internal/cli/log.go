// Package cli implements the adjpack command-line interface.
//
// The CLI converts tab-separated weighted edge lists to the binary adjacency
// format and back, and offers tooling around the binary files. It is built
// with cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - compress, decompress: the two conversions, cached by input hash
//   - inspect: summary, debug dump or interactive browser of a binary file
//   - verify: check that a decoded list still holds every source edge
//   - dot: render a binary file as Graphviz DOT or SVG
//   - serve: run the HTTP service
//   - cache: manage the local result cache
//
// The root command also accepts the classic flag form
//
//	adjpack -s -i edges.txt -o edges.bin
//	adjpack -d -i edges.bin -o edges.txt
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "Rendered 42 edges (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() when
// none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return log.Default()
	}
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
