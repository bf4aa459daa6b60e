package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// PipelineRunner executes one saved pipeline. *Runner satisfies it.
type PipelineRunner interface {
	Run(ctx context.Context, rule PipelineRule) (*Snapshot, error)
}

// RunStats summarizes one scheduler pass.
type RunStats struct {
	Succeeded int
	Failed    int
}

// Scheduler runs every saved pipeline on a periodic interval and stores the
// results as snapshots. A failing rule is logged and skipped; it never stops
// the pass or the scheduler.
type Scheduler struct {
	interval time.Duration
	runner   PipelineRunner
	store    SnapshotStore
	rules    RuleRepository
	workers  int
}

// NewScheduler creates a scheduler. workers < 1 runs rules one at a time.
func NewScheduler(
	interval time.Duration,
	runner PipelineRunner,
	store SnapshotStore,
	rules RuleRepository,
	workers int,
) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		interval: interval,
		runner:   runner,
		store:    store,
		rules:    rules,
		workers:  workers,
	}
}

// Start runs a pass immediately and then on every tick.
// Runs until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting pipeline scheduler",
		"interval", s.interval,
		"rules", len(s.rules.GetRules()),
		"workers", s.workers,
	)

	s.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

// RunOnce runs every rule once, at most workers at a time, and waits for all of them.
func (s *Scheduler) RunOnce(ctx context.Context) RunStats {
	var succeeded, failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, rule := range s.rules.GetRules() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := s.execute(gctx, rule); err != nil {
				failed.Add(1)
				slog.Error("[Scheduler] Pipeline failed",
					"rule", rule.Name,
					"index", rule.Index,
					"error", err,
				)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	stats := RunStats{Succeeded: int(succeeded.Load()), Failed: int(failed.Load())}
	if stats.Succeeded+stats.Failed > 0 {
		slog.Info("[Scheduler] Pass complete",
			"succeeded", stats.Succeeded,
			"failed", stats.Failed,
		)
	}
	return stats
}

// Trigger runs the named rule now and stores its snapshot.
func (s *Scheduler) Trigger(ctx context.Context, name string) (*Snapshot, error) {
	rule, err := s.rules.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, *rule)
}

// Latest returns the stored snapshot of the named rule.
func (s *Scheduler) Latest(ctx context.Context, name string) (*Snapshot, error) {
	if _, err := s.rules.Get(ctx, name); err != nil {
		return nil, err
	}
	return s.store.Latest(ctx, name)
}

func (s *Scheduler) execute(ctx context.Context, rule PipelineRule) (*Snapshot, error) {
	snap, err := s.runner.Run(ctx, rule)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("pipeline %q: save snapshot: %w", rule.Name, err)
	}
	return snap, nil
}
