// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wardensync/wardensync/pkg/config"
	"github.com/wardensync/wardensync/pkg/ledger"
	"github.com/wardensync/wardensync/pkg/ledger/sqlite"
)

func newStatusCmd() *cobra.Command {
	var (
		namespace string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the managed secrets ledger",
		Long: `List every secret the engine manages, the vault item it came from, its
sync status, and when it was last synced. Reads the local ledger; the vault
and the cluster are not contacted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}

			store, err := sqlite.Open(cmd.Context(), cfg.Ledger.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			if namespace != "" {
				filtered := records[:0]
				for _, record := range records {
					if record.Namespace == namespace {
						filtered = append(filtered, record)
					}
				}
				records = filtered
			}
			if format == FormatJSON {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(records)
			}
			return renderRecords(records)
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Only show secrets in this namespace")
	addFormatFlag(cmd.Flags(), &format)

	return cmd
}

func renderRecords(records []ledger.Record) error {
	if len(records) == 0 {
		fmt.Println("No managed secrets.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Options(
		tablewriter.WithHeader([]string{"Namespace", "Secret", "Source Item", "Status", "Last Synced", "Error"}),
		tablewriter.WithAlignment(tw.MakeAlign(6, tw.AlignLeft)),
	)

	for _, record := range records {
		lastSynced := ""
		if !record.LastSynced.IsZero() {
			lastSynced = record.LastSynced.Local().Format(time.RFC3339)
		}
		if err := table.Append([]string{
			record.Namespace,
			record.SecretName,
			record.SourceItemName,
			string(record.Status),
			lastSynced,
			record.LastError,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
