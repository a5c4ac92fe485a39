// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides the YAML configuration model for the sync engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/wardensync/wardensync/pkg/errors"
)

// Environment variables that override file-sourced secrets. The environment
// always wins so deployments can keep secrets out of the config file.
const (
	// EnvVaultClientSecret overrides vault.client_secret.
	EnvVaultClientSecret = "VWS_VAULT_CLIENT_SECRET"
	// EnvWebhookHMACSecret overrides webhook.hmac_secret.
	EnvWebhookHMACSecret = "VWS_WEBHOOK_HMAC_SECRET" //nolint:gosec // env var name, not a credential
)

// Duration wraps time.Duration so YAML and JSON carry human-readable strings
// like "5m".
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// VaultConfig configures the Vaultwarden client.
type VaultConfig struct {
	ServerURL string `yaml:"server_url" json:"server_url"`
	// IdentityURL is the token endpoint base. Empty lets the vault client
	// default it to ServerURL + "/identity".
	IdentityURL       string  `yaml:"identity_url" json:"identity_url,omitempty"`
	ClientID          string  `yaml:"client_id" json:"client_id"`
	ClientSecret      string  `yaml:"client_secret" json:"client_secret,omitempty"`
	OrganizationID    string  `yaml:"organization_id" json:"organization_id,omitempty"`
	FolderPrefix      string  `yaml:"folder_prefix" json:"folder_prefix,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries" json:"max_retries"`
}

// KubernetesConfig configures cluster access.
type KubernetesConfig struct {
	// Kubeconfig is the path to a kubeconfig file. Empty selects in-cluster
	// config with a kubeconfig fallback.
	Kubeconfig string `yaml:"kubeconfig" json:"kubeconfig,omitempty"`
	// ManagedBy is the value of the managed-by label on owned secrets.
	ManagedBy string `yaml:"managed_by" json:"managed_by"`
}

// LedgerConfig configures the state ledger.
type LedgerConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path" json:"path"`
}

// SyncConfig configures run policy.
type SyncConfig struct {
	// Interval between scheduled full sweeps.
	Interval Duration `yaml:"interval" json:"interval"`
	// CleanupOrphans enables deletion of orphaned secrets.
	CleanupOrphans bool `yaml:"cleanup_orphans" json:"cleanup_orphans"`
	// Workers bounds concurrent secret writes within one run.
	Workers int `yaml:"workers" json:"workers"`
}

// WebhookConfig configures the inbound webhook listener.
type WebhookConfig struct {
	// ListenAddress is the host:port the API server binds.
	ListenAddress string `yaml:"listen_address" json:"listen_address"`
	// HMACSecret authenticates inbound webhook payloads.
	HMACSecret string `yaml:"hmac_secret" json:"hmac_secret,omitempty"`
	// QueueDepth bounds the coordinator's run queue.
	QueueDepth int `yaml:"queue_depth" json:"queue_depth"`
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// LogFile is where audit lines are appended. Empty means stdout.
	LogFile string `yaml:"log_file" json:"log_file,omitempty"`
}

// TelemetryConfig configures metrics.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Config is the root configuration.
type Config struct {
	Vault      VaultConfig      `yaml:"vault" json:"vault"`
	Kubernetes KubernetesConfig `yaml:"kubernetes" json:"kubernetes"`
	Ledger     LedgerConfig     `yaml:"ledger" json:"ledger"`
	Sync       SyncConfig       `yaml:"sync" json:"sync"`
	Webhook    WebhookConfig    `yaml:"webhook" json:"webhook"`
	Audit      AuditConfig      `yaml:"audit" json:"audit"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" json:"telemetry"`
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	return xdg.ConfigFile("wardensync/config.yaml")
}

// DefaultLedgerPath returns the default ledger database location.
func DefaultLedgerPath() (string, error) {
	return xdg.DataFile("wardensync/ledger.db")
}

// Default returns a Config populated with every default value. Loading
// unmarshals on top of it, so absent keys keep their defaults.
func Default() *Config {
	return &Config{
		Vault: VaultConfig{
			RequestsPerSecond: 10,
			MaxRetries:        3,
		},
		Kubernetes: KubernetesConfig{
			ManagedBy: "wardensync",
		},
		Sync: SyncConfig{
			Interval: Duration(5 * time.Minute),
			Workers:  4,
		},
		Webhook: WebhookConfig{
			ListenAddress: "127.0.0.1:8415",
			QueueDepth:    8,
		},
		Audit: AuditConfig{
			Enabled: true,
		},
	}
}

// Load reads, defaults, env-overrides, and validates the config at path.
// An empty path selects the default XDG location.
func Load(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, errors.NewConfigurationError("resolving default config path", err)
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("reading config file %s", path), err)
	}
	return Parse(data)
}

// Parse builds a validated Config from raw YAML.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigurationError("parsing config file", err)
	}
	cfg.applyEnvOverrides()
	if cfg.Ledger.Path == "" {
		ledgerPath, err := DefaultLedgerPath()
		if err != nil {
			return nil, errors.NewConfigurationError("resolving default ledger path", err)
		}
		cfg.Ledger.Path = ledgerPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if secret := os.Getenv(EnvVaultClientSecret); secret != "" {
		c.Vault.ClientSecret = secret
	}
	if secret := os.Getenv(EnvWebhookHMACSecret); secret != "" {
		c.Webhook.HMACSecret = secret
	}
}
