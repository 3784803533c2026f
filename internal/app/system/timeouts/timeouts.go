// internal/app/system/timeouts/timeouts.go
// Package timeouts holds the context deadlines used for store and
// platform calls.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries, one verification step
//   - Long: multi-collection changes such as clan merge and unlink
//   - Batch: CSV imports and reconciliation sweeps
//   - Platform: one Discord REST call
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing     = 2 * time.Second
	DefaultShort    = 5 * time.Second
	DefaultMedium   = 10 * time.Second
	DefaultLong     = 30 * time.Second
	DefaultBatch    = 2 * time.Minute
	DefaultPlatform = 15 * time.Second
)

var (
	mu       sync.RWMutex
	ping     = DefaultPing
	short    = DefaultShort
	medium   = DefaultMedium
	long     = DefaultLong
	batch    = DefaultBatch
	platform = DefaultPlatform
)

func get(d *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *d
}

func Ping() time.Duration     { return get(&ping) }
func Short() time.Duration    { return get(&short) }
func Medium() time.Duration   { return get(&medium) }
func Long() time.Duration     { return get(&long) }
func Batch() time.Duration    { return get(&batch) }
func Platform() time.Duration { return get(&platform) }

// Config overrides the defaults. Zero fields keep the current value.
type Config struct {
	Ping     time.Duration
	Short    time.Duration
	Medium   time.Duration
	Long     time.Duration
	Batch    time.Duration
	Platform time.Duration
}

// Configure applies cfg. Call it once during startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&long, cfg.Long)
	set(&batch, cfg.Batch)
	set(&platform, cfg.Platform)
}

// Reset restores the defaults.
func Reset() {
	Configure(Config{
		Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium,
		Long: DefaultLong, Batch: DefaultBatch, Platform: DefaultPlatform,
	})
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "mentee csv import")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
