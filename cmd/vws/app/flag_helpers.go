// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Output format values.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// addFormatFlag adds a --format flag to the given flag set.
func addFormatFlag(flags *pflag.FlagSet, formatVar *string) {
	flags.StringVar(formatVar, "format", FormatText,
		fmt.Sprintf("Output format (%s)", strings.Join([]string{FormatText, FormatJSON}, ", ")))
}

// validateFormat checks a --format value.
func validateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format %q, must be one of: %s, %s", format, FormatText, FormatJSON)
	}
}
