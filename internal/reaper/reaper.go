// Package reaper sweeps postings that have stayed pending past a
// configured timeout and marks them failed. It is an optional
// hardening layer: with it off, a posting whose embedding request was
// lost simply stays pending forever.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/scheduler"
	"jobmatch-engine/internal/store"
)

const failReason = "embedding timed out"

type Reaper struct {
	store   *store.Store
	hub     *events.Hub
	log     *slog.Logger
	timeout time.Duration
	sweep   time.Duration
}

func New(st *store.Store, hub *events.Hub, log *slog.Logger, timeout, sweep time.Duration) *Reaper {
	return &Reaper{
		store:   st,
		hub:     hub,
		log:     log.With("component", "reaper"),
		timeout: timeout,
		sweep:   sweep,
	}
}

// Run blocks until ctx is cancelled, sweeping on every interval.
func (r *Reaper) Run(ctx context.Context) error {
	r.log.Info("reaper running", "timeout", r.timeout, "sweep", r.sweep)
	scheduler.Every(ctx, r.sweep, "reaper", r.log, r.sweepOnce)
	return nil
}

func (r *Reaper) sweepOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-r.timeout)
	n, err := r.store.MarkStalePendingFailed(ctx, cutoff, failReason)
	if err != nil {
		return err
	}
	if n > 0 {
		r.log.Warn("stale pending postings failed", "count", n, "cutoff", cutoff)
		r.hub.Publish(events.MakeEvent("", events.TypeJobFailed, 1, map[string]any{"reaped": n}))
	}
	return nil
}
