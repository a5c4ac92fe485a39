// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardensync/wardensync/pkg/mapper"
	"github.com/wardensync/wardensync/pkg/reconciler"
)

func planTarget(namespace, name, itemID string) *mapper.Target {
	return &mapper.Target{Namespace: namespace, SecretName: name, SourceItemID: itemID}
}

func TestRootCommandStructure(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "sync")
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "version")

	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestSyncCommandFlags(t *testing.T) {
	cmd := newSyncCmd()
	for _, flag := range []string{"item", "namespace", "cleanup-orphans", "dry-run"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestRenderPlanEmpty(t *testing.T) {
	require.NoError(t, renderPlan(&reconciler.Plan{}))
}

func TestRenderPlanWithEntries(t *testing.T) {
	plan := &reconciler.Plan{
		Creates: []reconciler.PlannedWrite{{Target: planTarget("prod", "db-creds", "A")}},
		Deletes: []reconciler.PlannedDelete{{
			Namespace: "prod", SecretName: "old-creds", SourceItemID: "B",
			Reason: reconciler.DeleteOrphan,
		}},
		Skips: []reconciler.PlannedSkip{{
			Namespace: "prod", SecretName: "api-key", SourceItemID: "C",
			Reason: reconciler.SkipUnchanged,
		}},
	}
	require.NoError(t, renderPlan(plan))
}
