// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault implements a read-only client for Vaultwarden-compatible
// servers. It authenticates with a Bitwarden user API key (client
// credentials), lists ciphers and folders, and presents them as immutable
// Item snapshots with folder-derived tags.
package vault
