// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapper translates vault items into Kubernetes secret targets.
//
// Mapping fails closed: an item without valid namespace/secret tags yields no
// target and is excluded from the sync plan with a skip reason.
package mapper

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/vault"
)

// Tag keys recognized on vault items (derived from folder names).
const (
	namespaceTagKey  = "ns"
	secretNameTagKey = "secret"
)

// Annotation keys stamped on managed secrets for provenance.
const (
	// AnnotationSourceItemID records the vault item id a secret was synced from.
	AnnotationSourceItemID = "wardensync.dev/source-item-id"
	// AnnotationSourceItemName records the vault item name.
	AnnotationSourceItemName = "wardensync.dev/source-item-name"
	// AnnotationRevision records the vault item revision timestamp.
	AnnotationRevision = "wardensync.dev/revision"
	// AnnotationContentHash records the target fingerprint.
	AnnotationContentHash = "wardensync.dev/content-hash"
)

// Login field names injected for login-type items.
const (
	loginUsernameKey = "username"
	loginPasswordKey = "password"
)

// SkipReason explains why an item produced no target.
type SkipReason string

// Skip reasons for items excluded from the plan.
const (
	SkipMissingNamespaceTag SkipReason = "missing-namespace-tag"
	SkipMissingSecretTag    SkipReason = "missing-secret-tag"
	SkipInvalidNamespace    SkipReason = "invalid-namespace"
	SkipInvalidSecretName   SkipReason = "invalid-secret-name"
)

// Target is the (namespace, secretName, data) tuple a vault item maps to.
type Target struct {
	Namespace   string
	SecretName  string
	Data        map[string]string
	Annotations map[string]string
	// Fingerprint is a content hash over Data and the source revision,
	// order-independent over the data mapping.
	Fingerprint    string
	SourceItemID   string
	SourceItemName string
	Revision       time.Time
}

// Key returns the "namespace/secretName" identity of the target.
func (t *Target) Key() string {
	return t.Namespace + "/" + t.SecretName
}

// Mapper translates vault items into targets.
type Mapper struct{}

// New creates a Mapper.
func New() *Mapper {
	return &Mapper{}
}

// Map translates a vault item into at most one target. A nil target with a
// non-empty reason means the item is excluded from the plan.
func (*Mapper) Map(item vault.Item) (*Target, SkipReason) {
	namespace, ok := tagValue(item.Tags, namespaceTagKey)
	if !ok {
		logger.Debugw("skipping vault item", "item", item.ID, "reason", SkipMissingNamespaceTag)
		return nil, SkipMissingNamespaceTag
	}
	secretName, ok := tagValue(item.Tags, secretNameTagKey)
	if !ok {
		logger.Debugw("skipping vault item", "item", item.ID, "reason", SkipMissingSecretTag)
		return nil, SkipMissingSecretTag
	}

	if errs := validation.IsDNS1123Label(namespace); len(errs) > 0 {
		logger.Debugw("skipping vault item", "item", item.ID, "reason", SkipInvalidNamespace, "namespace", namespace)
		return nil, SkipInvalidNamespace
	}
	if errs := validation.IsDNS1123Subdomain(secretName); len(errs) > 0 {
		logger.Debugw("skipping vault item", "item", item.ID, "reason", SkipInvalidSecretName, "secret", secretName)
		return nil, SkipInvalidSecretName
	}

	data := buildData(item)
	fingerprint := Fingerprint(data, item.RevisionDate)

	target := &Target{
		Namespace:   namespace,
		SecretName:  secretName,
		Data:        data,
		Fingerprint: fingerprint,
		Annotations: map[string]string{
			AnnotationSourceItemID:   item.ID,
			AnnotationSourceItemName: item.Name,
			AnnotationRevision:       item.RevisionDate.UTC().Format(time.RFC3339Nano),
			AnnotationContentHash:    fingerprint,
		},
		SourceItemID:   item.ID,
		SourceItemName: item.Name,
		Revision:       item.RevisionDate,
	}
	return target, ""
}

// buildData assembles the secret data from custom fields, injecting login
// username/password when present and not shadowed by an explicit field.
func buildData(item vault.Item) map[string]string {
	data := make(map[string]string, len(item.Fields)+2)
	for k, v := range item.Fields {
		data[k] = v
	}
	if item.Type == vault.ItemTypeLogin && item.Login != nil {
		if item.Login.Username != "" {
			if _, shadowed := data[loginUsernameKey]; !shadowed {
				data[loginUsernameKey] = item.Login.Username
			}
		}
		if item.Login.Password != "" {
			if _, shadowed := data[loginPasswordKey]; !shadowed {
				data[loginPasswordKey] = item.Login.Password
			}
		}
	}
	return data
}

// Fingerprint computes a hex SHA-256 over the canonical serialization of the
// data mapping (keys sorted, every key and value length-prefixed) and the
// revision timestamp. Reordering keys never changes the result; changing any
// value or the revision does. The length prefixes keep the encoding
// injective: a value containing separator bytes cannot collide with a
// distinct key/value pair.
func Fingerprint(data map[string]string, revision time.Time) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	var length [8]byte
	part := func(s string) {
		binary.BigEndian.PutUint64(length[:], uint64(len(s)))
		h.Write(length[:])
		h.Write([]byte(s))
	}
	for _, k := range keys {
		part(k)
		part(data[k])
	}
	part(revision.UTC().Format(time.RFC3339Nano))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ItemNamespace returns the namespace an item claims through its tags, if
// any. Callers use it to narrow an item set to one namespace before mapping.
func ItemNamespace(item vault.Item) (string, bool) {
	return tagValue(item.Tags, namespaceTagKey)
}

// tagValue looks up a "key=value" tag, returning the value and whether a
// non-empty value was found.
func tagValue(tags []string, key string) (string, bool) {
	prefix := key + "="
	for _, tag := range tags {
		if strings.HasPrefix(tag, prefix) {
			value := strings.TrimSpace(strings.TrimPrefix(tag, prefix))
			return value, value != ""
		}
	}
	return "", false
}
