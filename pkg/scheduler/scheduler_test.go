// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardensync/wardensync/pkg/errors"
	"github.com/wardensync/wardensync/pkg/reconciler"
)

type countingRunner struct {
	mu    sync.Mutex
	calls int
	opts  []reconciler.Options
	err   error
}

func (r *countingRunner) RunFullSync(_ context.Context, opts reconciler.Options) (reconciler.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.opts = append(r.opts, opts)
	return reconciler.Summary{Succeeded: r.err == nil}, r.err
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSweepsOnInterval(t *testing.T) {
	t.Parallel()
	runner := &countingRunner{}
	s := New(runner, Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return runner.count() >= 3 },
		time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunOnStart(t *testing.T) {
	t.Parallel()
	runner := &countingRunner{}
	s := New(runner, Config{Interval: time.Hour, RunOnStart: true, CleanupOrphans: true})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return runner.count() == 1 },
		time.Second, 5*time.Millisecond)
	cancel()
	<-done

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.True(t, runner.opts[0].CleanupOrphans)
}

func TestBusyTickIsDropped(t *testing.T) {
	t.Parallel()
	runner := &countingRunner{err: errors.NewBusyError("sync queue is full", nil)}
	s := New(runner, Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Busy responses never stop the loop.
	require.Eventually(t, func() bool { return runner.count() >= 2 },
		time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestDefaultInterval(t *testing.T) {
	t.Parallel()
	s := New(&countingRunner{}, Config{})
	assert.Equal(t, DefaultInterval, s.config.Interval)
}
