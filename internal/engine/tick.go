// Package engine runs the periodic background jobs of the campaign server.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultInterval is the tick interval when none is set.
const DefaultInterval = time.Minute

// Engine drives callbacks from a ticker until its context is cancelled.
type Engine struct {
	Interval time.Duration // Tick interval (default 1 minute)

	// Callbacks. Errors are logged and do not stop the loop.
	OnTick func(ctx context.Context, tick uint64) error // Every tick
	OnDay  func(ctx context.Context, tick uint64) error // Once per 24h of ticks

	tick atomic.Uint64
}

// NewEngine creates an engine with the default interval.
func NewEngine() *Engine {
	return &Engine{Interval: DefaultInterval}
}

func (e *Engine) interval() time.Duration {
	if e.Interval <= 0 {
		return DefaultInterval
	}
	return e.Interval
}

// TicksPerDay is how many ticks make up 24 hours at the engine's interval.
// Intervals longer than a day run OnDay on every tick.
func (e *Engine) TicksPerDay() uint64 {
	return max(1, uint64(24*time.Hour/e.interval()))
}

// Tick returns the number of ticks run so far.
func (e *Engine) Tick() uint64 {
	return e.tick.Load()
}

// Run blocks, stepping once per interval, until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	interval := e.interval()
	slog.Info("scheduler started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped", "tick", e.Tick())
			return
		case <-ticker.C:
			e.Step(ctx)
		}
	}
}

// Step advances the engine by one tick and runs the due callbacks.
func (e *Engine) Step(ctx context.Context) {
	tick := e.tick.Add(1)

	if e.OnTick != nil {
		if err := e.OnTick(ctx, tick); err != nil {
			slog.Error("tick job failed", "tick", tick, "error", err)
		}
	}
	if tick%e.TicksPerDay() == 0 && e.OnDay != nil {
		if err := e.OnDay(ctx, tick); err != nil {
			slog.Error("daily job failed", "tick", tick, "error", err)
		}
	}
}
