// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/wardensync/wardensync/pkg/errors"
)

//go:embed schema.json
var schemaBytes []byte

// Validate checks the config against the embedded JSON schema and a handful
// of semantic rules the schema cannot express. Any violation is a fatal
// configuration error.
func (c *Config) Validate() error {
	if err := c.validateSchema(); err != nil {
		return err
	}

	var problems []string
	if c.Sync.Interval.Duration() < time.Second {
		problems = append(problems, "sync.interval must be at least 1s")
	}
	if c.Vault.ServerURL == c.Vault.IdentityURL {
		// Vaultwarden serves both from one origin, but with distinct paths;
		// identical values usually mean a missing /identity suffix.
		problems = append(problems,
			"vault.identity_url must differ from vault.server_url (append /identity for Vaultwarden)")
	}

	if len(problems) > 0 {
		return errors.NewConfigurationError(
			"invalid configuration:\n  - "+strings.Join(problems, "\n  - "), nil)
	}
	return nil
}

func (c *Config) validateSchema() error {
	document, err := json.Marshal(c)
	if err != nil {
		return errors.NewConfigurationError("serializing config for validation", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return errors.NewConfigurationError("validating config", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return errors.NewConfigurationError(
		"invalid configuration:\n  - "+strings.Join(problems, "\n  - "), nil)
}
