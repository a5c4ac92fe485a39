// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/wardensync/wardensync/pkg/audit"
	"github.com/wardensync/wardensync/pkg/config"
	"github.com/wardensync/wardensync/pkg/gateway"
	"github.com/wardensync/wardensync/pkg/kubernetes"
	"github.com/wardensync/wardensync/pkg/ledger/sqlite"
	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/mapper"
	"github.com/wardensync/wardensync/pkg/reconciler"
	"github.com/wardensync/wardensync/pkg/telemetry"
	"github.com/wardensync/wardensync/pkg/vault"
	"github.com/wardensync/wardensync/pkg/versions"
)

// engine holds the assembled collaborators shared by the CLI commands.
type engine struct {
	cfg      *config.Config
	gateway  *gateway.Gateway
	store    *sqlite.Store
	sink     audit.Sink
	provider *telemetry.Provider
	recorder *telemetry.Recorder
}

// buildEngine loads the config and assembles the sync engine.
func buildEngine(ctx context.Context) (*engine, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}

	vaultClient, err := vault.NewClient(vault.Config{
		ServerURL:         cfg.Vault.ServerURL,
		IdentityURL:       cfg.Vault.IdentityURL,
		ClientID:          cfg.Vault.ClientID,
		ClientSecret:      cfg.Vault.ClientSecret,
		OrganizationID:    cfg.Vault.OrganizationID,
		FolderPrefix:      cfg.Vault.FolderPrefix,
		RequestsPerSecond: cfg.Vault.RequestsPerSecond,
		MaxRetries:        cfg.Vault.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewClientset(cfg.Kubernetes.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	secrets := kubernetes.NewSecretsClient(clientset, cfg.Kubernetes.ManagedBy)

	store, err := sqlite.Open(ctx, cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}

	var sink audit.Sink
	if cfg.Audit.Enabled {
		logSink, err := audit.NewLogSink(&audit.Config{LogFile: cfg.Audit.LogFile})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		sink = logSink
	} else {
		sink = &audit.NoopSink{}
	}

	provider, err := telemetry.NewProvider(telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "wardensync",
		ServiceVersion: versions.GetVersionInfo().Version,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	recorder, err := telemetry.NewRecorder(provider.MeterProvider())
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &engine{
		cfg:      cfg,
		gateway:  gateway.New(vaultClient, mapper.New(), reconciler.New(secrets, store)),
		store:    store,
		sink:     sink,
		provider: provider,
		recorder: recorder,
	}, nil
}

// syncOptions derives the base run options from config.
func (e *engine) syncOptions() reconciler.Options {
	return reconciler.Options{
		CleanupOrphans: e.cfg.Sync.CleanupOrphans,
		Workers:        e.cfg.Sync.Workers,
	}
}

// close releases the engine's resources.
func (e *engine) close(ctx context.Context) {
	if err := e.store.Close(); err != nil {
		logger.Warnf("failed to close ledger: %v", err)
	}
	if err := e.provider.Shutdown(ctx); err != nil {
		logger.Warnf("failed to shut down telemetry: %v", err)
	}
}
