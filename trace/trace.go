// Package trace is a thin leveled-logging wrapper around zerolog,
// generalizing the teacher's jacobin/trace and jacobin/log packages
// (referenced throughout classloader.go and jvm/*.go as trace.Trace,
// trace.Error, log.Log(msg, log.SEVERE)) onto zerolog's structured event
// API. See DESIGN.md.
package trace

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// SetLevel sets the minimum zerolog level emitted.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(level)
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Trace logs at debug granularity -- the teacher's TRACE_INST level, used
// for per-opcode and per-class-load narration.
func Trace(msg string) { current().Debug().Msg(msg) }

// Info logs at informational granularity.
func Info(msg string) { current().Info().Msg(msg) }

// Warn logs at warning granularity -- the teacher's WARNING level.
func Warn(msg string) { current().Warn().Msg(msg) }

// Error logs at error granularity -- the teacher's SEVERE level.
func Error(msg string) { current().Error().Msg(msg) }

// Fields returns an event builder for callers that want to attach
// structured context (opcode offset, class/method name) before logging,
// e.g. trace.Fields().Str("class", name).Int("offset", pc).Msg("...").
func Fields() *zerolog.Event { return current().Debug() }
