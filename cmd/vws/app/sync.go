// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/wardensync/wardensync/pkg/reconciler"
)

func newSyncCmd() *cobra.Command {
	var (
		itemID         string
		namespace      string
		cleanupOrphans bool
		dryRun         bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a one-shot reconciliation",
		Long: `Run one reconciliation pass and exit. By default the full vault is
swept; --item or --namespace narrow the run to a single vault item or
namespace. --dry-run prints the computed plan without applying it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if itemID != "" && namespace != "" {
				return fmt.Errorf("--item and --namespace are mutually exclusive")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			eng, err := buildEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close(ctx)

			opts := eng.syncOptions()
			if cleanupOrphans {
				opts.CleanupOrphans = true
			}

			scope := reconciler.FullScope()
			switch {
			case itemID != "":
				scope = reconciler.ItemScope(itemID)
			case namespace != "":
				scope = reconciler.NamespaceScope(namespace)
			}

			if dryRun {
				plan, err := eng.gateway.Plan(ctx, scope, opts)
				if err != nil {
					return err
				}
				return renderPlan(plan)
			}

			opts.Observer = &progressPrinter{}
			summary, err := runScoped(ctx, eng, scope, opts)
			if err != nil {
				return err
			}
			renderSummary(summary)
			if !summary.Succeeded {
				return fmt.Errorf("sync finished with %d failed item(s)", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&itemID, "item", "", "Sync only the vault item with this ID")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Sync only this namespace")
	cmd.Flags().BoolVar(&cleanupOrphans, "cleanup-orphans", false,
		"Delete managed secrets whose vault item is gone (overrides config for this run)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without applying it")

	return cmd
}

func runScoped(ctx context.Context, eng *engine, scope reconciler.Scope, opts reconciler.Options) (reconciler.Summary, error) {
	switch scope.Kind {
	case reconciler.ScopeItem:
		return eng.gateway.SyncItem(ctx, scope.ItemID, opts)
	case reconciler.ScopeNamespace:
		return eng.gateway.SyncNamespace(ctx, scope.Namespace, opts)
	default:
		return eng.gateway.RunFullSync(ctx, opts)
	}
}

// progressPrinter echoes each applied plan entry to stdout while a one-shot
// run is in flight. Skips stay quiet; the final summary counts them.
type progressPrinter struct {
	mu sync.Mutex
}

func (p *progressPrinter) PlanComputed(plan *reconciler.Plan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("Plan: %d to create, %d to update, %d to delete, %d skipped.\n",
		len(plan.Creates), len(plan.Updates), len(plan.Deletes), len(plan.Skips))
}

func (p *progressPrinter) ItemApplied(result reconciler.ItemResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case result.Err != nil:
		fmt.Printf("  %s %s/%s failed: %v\n",
			result.Operation, result.Namespace, result.SecretName, result.Err)
	case result.Operation == reconciler.OpSkip:
	default:
		fmt.Printf("  %s %s/%s\n", result.Operation, result.Namespace, result.SecretName)
	}
}

func (*progressPrinter) Phase(string, int, int) {}

func renderPlan(plan *reconciler.Plan) error {
	total := len(plan.Creates) + len(plan.Updates) + len(plan.Skips) + len(plan.Deletes)
	if total == 0 {
		fmt.Println("Nothing to do.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Options(
		tablewriter.WithHeader([]string{"Operation", "Namespace", "Secret", "Item", "Reason"}),
		tablewriter.WithAlignment(tw.MakeAlign(5, tw.AlignLeft)),
	)

	appendRow := func(op, ns, secret, item, reason string) error {
		return table.Append([]string{op, ns, secret, item, reason})
	}
	for _, write := range plan.Creates {
		if err := appendRow("create", write.Target.Namespace, write.Target.SecretName,
			write.Target.SourceItemID, ""); err != nil {
			return err
		}
	}
	for _, write := range plan.Updates {
		if err := appendRow("update", write.Target.Namespace, write.Target.SecretName,
			write.Target.SourceItemID, ""); err != nil {
			return err
		}
	}
	for _, del := range plan.Deletes {
		if err := appendRow("delete", del.Namespace, del.SecretName,
			del.SourceItemID, del.Reason); err != nil {
			return err
		}
	}
	for _, skip := range plan.Skips {
		if err := appendRow("skip", skip.Namespace, skip.SecretName,
			skip.SourceItemID, skip.Reason); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Printf("\nPlan: %d to create, %d to update, %d to delete, %d skipped.\n",
		len(plan.Creates), len(plan.Updates), len(plan.Deletes), len(plan.Skips))
	return nil
}

func renderSummary(summary reconciler.Summary) {
	fmt.Printf("Scope: %s\n", summary.Scope)
	fmt.Printf("Processed %d item(s) in %s: %d created, %d updated, %d skipped, %d deleted, %d failed.\n",
		summary.Processed, summary.Duration.Round(time.Millisecond), summary.Created, summary.Updated,
		summary.Skipped, summary.Deleted, summary.Failed)
	for _, itemErr := range summary.Errors {
		fmt.Printf("  failed %s %s/%s: %s\n",
			itemErr.Operation, itemErr.Namespace, itemErr.SecretName, itemErr.Message)
	}
	if summary.OrphanCleanup != nil {
		fmt.Printf("Orphans: %d scanned, %d deleted, %d failed.\n",
			summary.OrphanCleanup.Scanned, summary.OrphanCleanup.Deleted, summary.OrphanCleanup.Failed)
	}
}
