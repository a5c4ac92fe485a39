// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wardensync/wardensync/pkg/api"
	"github.com/wardensync/wardensync/pkg/coordinator"
	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/scheduler"
)

func newServeCmd() *cobra.Command {
	var (
		listenAddress string
		runOnStart    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync engine as a service",
		Long: `Run the engine continuously: periodic full sweeps on the configured
interval plus the HTTP API with the authenticated webhook endpoint for
near-real-time syncs. Both triggers funnel through one run coordinator, so at
most one reconciliation is in flight at any time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Ensure everything is shut down gracefully on Ctrl+C.
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			eng, err := buildEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close(context.Background())

			coord := coordinator.New(eng.gateway, coordinator.Config{
				QueueDepth: eng.cfg.Webhook.QueueDepth,
				Audit:      eng.sink,
				Metrics:    eng.recorder,
			})
			if err := coord.Start(ctx); err != nil {
				return err
			}
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer stopCancel()
				if err := coord.Stop(stopCtx); err != nil {
					logger.Warnf("coordinator did not stop cleanly: %v", err)
				}
			}()

			sched := scheduler.New(coord, scheduler.Config{
				Interval:       eng.cfg.Sync.Interval.Duration(),
				CleanupOrphans: eng.cfg.Sync.CleanupOrphans,
				RunOnStart:     runOnStart,
			})

			if listenAddress == "" {
				listenAddress = eng.cfg.Webhook.ListenAddress
			}
			apiConfig := api.Config{
				Runner:         coord,
				Store:          eng.store,
				Readiness:      eng.store,
				HMACSecret:     []byte(eng.cfg.Webhook.HMACSecret),
				SyncOptions:    eng.syncOptions(),
				MetricsHandler: eng.provider.PrometheusHandler(),
			}

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				err := sched.Run(groupCtx)
				if err != nil && groupCtx.Err() != nil {
					return nil
				}
				return err
			})
			group.Go(func() error {
				return api.Serve(groupCtx, listenAddress, apiConfig)
			})
			return group.Wait()
		},
	}

	cmd.Flags().StringVar(&listenAddress, "listen", "",
		"Address for the HTTP API (overrides webhook.listen_address)")
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", true,
		"Run a full sweep immediately instead of waiting for the first tick")

	return cmd
}
