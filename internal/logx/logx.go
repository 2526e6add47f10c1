// Package logx is the engine's structured logging wrapper around
// rs/zerolog. Every long-lived component (catalog store, source adapter,
// target adapter, replication worker, warehouse builder, alert dispatcher)
// gets its own logger via New, pre-bound with the fields that identify it
// so log lines never need to repeat schema/table/run_id by hand.
package logx

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Level mirrors zerolog's level constants so callers outside this package
// never import zerolog directly.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

var (
	mu      sync.Mutex
	pretty  bool
	level   = InfoLevel
	initted bool
)

// Configure sets the process-wide output mode and minimum level. It must be
// called once, early in main, before any New call; later calls are no-ops
// since loggers are cheap to construct from the shared settings at New time.
func Configure(prettyOutput bool, minLevel Level) {
	mu.Lock()
	defer mu.Unlock()
	if initted {
		return
	}
	pretty = prettyOutput
	level = minLevel
	initted = true
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// New returns a logger scoped to component, with extra key/value pairs
// attached as string fields. An odd number of kv trails a dangling key,
// which is dropped rather than panicking — logging must never crash a
// caller that got the arity wrong.
func New(component string, kv ...string) zerolog.Logger {
	mu.Lock()
	out, lvl := writer(), level
	mu.Unlock()

	ctx := zerolog.New(out).With().Timestamp().Str("component", component)
	for i := 0; i+1 < len(kv); i += 2 {
		ctx = ctx.Str(kv[i], kv[i+1])
	}
	return ctx.Logger().Level(lvl)
}

// With returns a child logger of l with additional run-scoped fields
// attached. Replication workers use this to stamp every line for a given
// (schema, table, run_id) triple without rebuilding the base logger.
func With(l zerolog.Logger, kv ...string) zerolog.Logger {
	ctx := l.With()
	for i := 0; i+1 < len(kv); i += 2 {
		ctx = ctx.Str(kv[i], kv[i+1])
	}
	return ctx.Logger()
}

func writer() io.Writer {
	if pretty {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	return os.Stderr
}
