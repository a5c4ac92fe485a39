// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"strings"
	"time"
)

// ItemType identifies the kind of vault item.
type ItemType string

// Vault item types, matching the Bitwarden cipher type enumeration.
const (
	ItemTypeLogin      ItemType = "login"
	ItemTypeSecureNote ItemType = "secureNote"
	ItemTypeCard       ItemType = "card"
	ItemTypeIdentity   ItemType = "identity"
	ItemTypeUnknown    ItemType = "unknown"
)

// LoginData holds the credential pair of a login item.
type LoginData struct {
	Username string
	Password string
}

// Item is an immutable snapshot of a vault item as fetched from the server.
// The sync engine never mutates Items; a fresh fetch produces fresh snapshots.
type Item struct {
	// ID is the vault-assigned item id.
	ID string
	// Name is the human-readable item name.
	Name string
	// Type is the item kind (login, secureNote, card, identity).
	Type ItemType
	// OrganizationID is the owning organization, empty for personal items.
	OrganizationID string
	// FolderID is the id of the folder containing the item, empty when unfiled.
	FolderID string
	// FolderName is the resolved name of the folder, empty when unfiled.
	FolderName string
	// Tags are derived from the folder name by splitting on commas.
	// A folder named "ns=prod,secret=db-creds" yields ["ns=prod", "secret=db-creds"].
	Tags []string
	// Fields maps custom field names to their values.
	Fields map[string]string
	// Login holds username/password for login items, nil otherwise.
	Login *LoginData
	// RevisionDate is the server-side last-modified timestamp.
	RevisionDate time.Time
	// Deleted reports whether the item sits in the vault's trash.
	Deleted bool
}

// TagsFromFolderName splits a folder name into tags on commas, trimming
// whitespace and dropping empty segments.
func TagsFromFolderName(name string) []string {
	if name == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(name, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

func itemTypeFromCipher(t int) ItemType {
	switch t {
	case 1:
		return ItemTypeLogin
	case 2:
		return ItemTypeSecureNote
	case 3:
		return ItemTypeCard
	case 4:
		return ItemTypeIdentity
	default:
		return ItemTypeUnknown
	}
}
