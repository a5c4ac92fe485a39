// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the WardenSync CLI.
package main

import (
	"os"

	"github.com/wardensync/wardensync/cmd/vws/app"
	"github.com/wardensync/wardensync/pkg/logger"
)

func main() {
	// Initialize the logger
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
