// Package poller repeats a fetch on a fixed interval. A tick that fires while
// the previous fetch for the same key is still running is skipped, and a
// result that lands after the poll was cancelled is dropped.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_poll_ticks_total",
	Help: "Poll ticks by outcome.",
}, []string{"name", "outcome"})

// Group tracks which keys have a fetch in flight. Pollers sharing a Group
// never overlap on the same key.
type Group struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewGroup() *Group {
	return &Group{inFlight: make(map[string]struct{})}
}

func (g *Group) tryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[key]; busy {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *Group) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, key)
}

type Config struct {
	// Key identifies the fetch for overlap checks, variables included.
	Key string
	// Name labels the poll in metrics; keep it low-cardinality.
	Name     string
	Interval time.Duration
	Group    *Group
	Logger   *slog.Logger
	// Immediate fires the first tick at start instead of after one interval.
	Immediate bool
}

// Run polls until ctx is cancelled. apply receives every result, errors
// included. It is never started once ctx is done, and Run does not return
// while an apply is still running.
func Run[T any](ctx context.Context, cfg Config, fetch func(context.Context) (T, error), apply func(T, error)) {
	group := cfg.Group
	if group == nil {
		group = NewGroup()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "unnamed"
	}

	// gate orders apply against shutdown
	var (
		gate    sync.Mutex
		stopped bool
	)

	tick := func() {
		if !group.tryAcquire(cfg.Key) {
			ticksTotal.WithLabelValues(name, "skipped").Inc()
			logger.Debug("poll tick skipped, previous still in flight", "key", cfg.Key)
			return
		}
		go func() {
			defer group.release(cfg.Key)
			result, err := fetch(ctx)

			gate.Lock()
			defer gate.Unlock()
			if stopped || ctx.Err() != nil {
				ticksTotal.WithLabelValues(name, "discarded").Inc()
				return
			}
			if err != nil {
				ticksTotal.WithLabelValues(name, "error").Inc()
			} else {
				ticksTotal.WithLabelValues(name, "applied").Inc()
			}
			apply(result, err)
		}()
	}

	if cfg.Immediate {
		tick()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			gate.Lock()
			stopped = true
			gate.Unlock()
			return
		case <-ticker.C:
			tick()
		}
	}
}
