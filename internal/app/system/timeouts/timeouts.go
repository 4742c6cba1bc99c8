// internal/app/system/timeouts/timeouts.go

// Package timeouts provides the shared deadlines for handler, job and
// spreadsheet operations.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing    = 2 * time.Second
	DefaultShort   = 5 * time.Second
	DefaultMedium  = 10 * time.Second
	DefaultRefresh = 2 * time.Minute
)

// Config holds timeout values. Zero fields keep their current value.
type Config struct {
	Ping    time.Duration // health checks
	Short   time.Duration // single Mongo reads/writes
	Medium  time.Duration // handlers serving the cached dataset
	Refresh time.Duration // a full spreadsheet fetch and transform
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{
		Ping:    DefaultPing,
		Short:   DefaultShort,
		Medium:  DefaultMedium,
		Refresh: DefaultRefresh,
	}
}

// Ping returns the timeout for health checks.
func Ping() time.Duration { return Current().Ping }

// Short returns the timeout for simple operations.
func Short() time.Duration { return Current().Short }

// Medium returns the timeout for request handlers.
func Medium() time.Duration { return Current().Medium }

// Refresh returns the timeout for a dataset refresh.
func Refresh() time.Duration { return Current().Refresh }

// Configure overrides the non-zero fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		cur.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		cur.Medium = cfg.Medium
	}
	if cfg.Refresh > 0 {
		cur.Refresh = cfg.Refresh
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	cur = defaults()
	mu.Unlock()
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout derives a context with timeout; its cancel func logs when the
// deadline was what ended the operation.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
