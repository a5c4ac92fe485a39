// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the wardensync command-line
// application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wardensync/wardensync/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "vws",
	DisableAutoGenTag: true,
	Short:             "WardenSync (vws) keeps Kubernetes secrets in sync with Vaultwarden",
	Long: `WardenSync (vws) reconciles Kubernetes secrets against items in a
Vaultwarden (Bitwarden-compatible) vault. Vault items tagged through their
folder name (ns=<namespace>,secret=<name>) become managed secrets; the engine
creates, updates, and cleans them up as the vault changes, and records every
managed secret in a local ledger so orphans are detected across runs.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd creates a new root command for the WardenSync CLI.
func NewRootCmd() *cobra.Command {
	// Add persistent flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file")
	err = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	if err != nil {
		logger.Errorf("Error binding config flag: %v", err)
	}

	// Add subcommands
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}
