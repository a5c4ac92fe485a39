// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package scheduler drives periodic full-sweep runs. It submits through the
// coordinator, so a tick that lands while another run is active is skipped
// instead of stacking up.
package scheduler

import (
	"context"
	"time"

	"github.com/wardensync/wardensync/pkg/errors"
	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/reconciler"
)

// DefaultInterval is the full-sweep interval used when none is configured.
const DefaultInterval = 5 * time.Minute

// Runner submits full-scope runs. The coordinator is the production
// implementation.
type Runner interface {
	RunFullSync(ctx context.Context, opts reconciler.Options) (reconciler.Summary, error)
}

// Config configures the periodic sweep.
type Config struct {
	// Interval between full sweeps. Zero selects DefaultInterval.
	Interval time.Duration
	// CleanupOrphans is passed through to every scheduled run.
	CleanupOrphans bool
	// RunOnStart triggers a sweep immediately instead of waiting for the
	// first tick.
	RunOnStart bool
}

// Scheduler triggers full sweeps on a fixed interval.
type Scheduler struct {
	runner Runner
	config Config
}

// New creates a Scheduler.
func New(runner Runner, config Config) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Scheduler{runner: runner, config: config}
}

// Run blocks, sweeping on every tick, until ctx is canceled. A tick rejected
// because the sync queue is full is logged and dropped; the next tick tries
// again.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Infow("scheduler started",
		"interval", s.config.Interval,
		"cleanup_orphans", s.config.CleanupOrphans)

	if s.config.RunOnStart {
		s.sweep(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	opts := reconciler.Options{CleanupOrphans: s.config.CleanupOrphans}
	summary, err := s.runner.RunFullSync(ctx, opts)
	switch {
	case errors.IsBusy(err):
		logger.Warnw("scheduled sweep skipped, a sync is already running")
	case err != nil:
		logger.Errorw("scheduled sweep failed", "error", err)
	case summary.Failed > 0:
		logger.Warnw("scheduled sweep finished with item failures",
			"failed", summary.Failed, "created", summary.Created,
			"updated", summary.Updated, "deleted", summary.Deleted)
	}
}
