// Package timeouts holds the deadline classes used for store and remote
// calls.
//
// HTTP handlers, the sweep engine and the ESI client derive a deadline from
// one of these classes for each call:
//   - Ping: health checks
//   - Short: single-document reads and writes (owner, mapping, run record)
//   - Medium: lists and identity lookups
//   - Long: admin writes that validate other collections first
//   - Batch: title replacement, group reconciliation, index setup
//   - Remote: one ESI call or one SSO token refresh
//
// Values are process-wide. Set them once at startup with Configure and
// ConfigureFromEnv.
package timeouts

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults for each class.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
	DefaultRemote = 20 * time.Second
)

// Config holds one duration per class. Zero fields leave a class unchanged.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
	Remote time.Duration
}

// classes pairs each Config field with its environment variable.
func (c *Config) classes() []struct {
	env string
	d   *time.Duration
} {
	return []struct {
		env string
		d   *time.Duration
	}{
		{"TIMEOUT_PING", &c.Ping},
		{"TIMEOUT_SHORT", &c.Short},
		{"TIMEOUT_MEDIUM", &c.Medium},
		{"TIMEOUT_LONG", &c.Long},
		{"TIMEOUT_BATCH", &c.Batch},
		{"TIMEOUT_REMOTE", &c.Remote},
	}
}

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
		Remote: DefaultRemote,
	}
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func read(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(current)
}

// Ping, Short, Medium, Long and Batch return the current value of their class.
func Ping() time.Duration   { return read(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return read(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return read(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return read(func(c Config) time.Duration { return c.Long }) }
func Batch() time.Duration  { return read(func(c Config) time.Duration { return c.Batch }) }

// Remote bounds one call to ESI or the SSO token endpoint. A call that runs
// out of time is an ordinary remote failure.
func Remote() time.Duration { return read(func(c Config) time.Duration { return c.Remote }) }

// Configure overlays the positive fields of cfg on the current values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	dst := current.classes()
	for i, src := range cfg.classes() {
		if *src.d > 0 {
			*dst[i].d = *src.d
		}
	}
}

// ConfigureFromEnv reads TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM,
// TIMEOUT_LONG, TIMEOUT_BATCH and TIMEOUT_REMOTE as Go durations ("5s",
// "2m"). Unset, unparsable and non-positive values are skipped. It returns
// how many classes were set.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for _, c := range cfg.classes() {
		v := os.Getenv(c.env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*c.d = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// Reset restores the defaults. Tests that change a class call it on exit.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// Current returns a copy of the values in effect.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning naming
// operation when the deadline was what ended the context.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), log, "title replacement")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
