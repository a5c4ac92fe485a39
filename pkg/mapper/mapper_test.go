// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardensync/wardensync/pkg/vault"
)

var testRevision = time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

func loginItem(id string, tags []string, fields map[string]string) vault.Item {
	return vault.Item{
		ID:           id,
		Name:         "item " + id,
		Type:         vault.ItemTypeLogin,
		Tags:         tags,
		Fields:       fields,
		Login:        &vault.LoginData{Username: "u", Password: "p"},
		RevisionDate: testRevision,
	}
}

func TestMap_Valid(t *testing.T) {
	t.Parallel()

	m := New()
	item := loginItem("item-1", []string{"ns=prod", "secret=db-creds"}, map[string]string{"extra": "v"})

	target, reason := m.Map(item)
	require.Empty(t, reason)
	require.NotNil(t, target)

	assert.Equal(t, "prod", target.Namespace)
	assert.Equal(t, "db-creds", target.SecretName)
	assert.Equal(t, "prod/db-creds", target.Key())
	assert.Equal(t, map[string]string{"extra": "v", "username": "u", "password": "p"}, target.Data)
	assert.Equal(t, "item-1", target.Annotations[AnnotationSourceItemID])
	assert.Equal(t, target.Fingerprint, target.Annotations[AnnotationContentHash])
	assert.NotEmpty(t, target.Fingerprint)
}

func TestMap_FailsClosed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tags []string
		want SkipReason
	}{
		{"no tags", nil, SkipMissingNamespaceTag},
		{"missing namespace", []string{"secret=db-creds"}, SkipMissingNamespaceTag},
		{"missing secret", []string{"ns=prod"}, SkipMissingSecretTag},
		{"empty namespace value", []string{"ns=", "secret=db-creds"}, SkipMissingNamespaceTag},
		{"invalid namespace", []string{"ns=Not_Valid", "secret=db-creds"}, SkipInvalidNamespace},
		{"namespace too long", []string{"ns=" + longName(64), "secret=db-creds"}, SkipInvalidNamespace},
		{"invalid secret name", []string{"ns=prod", "secret=Bad Name"}, SkipInvalidSecretName},
	}

	m := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			target, reason := m.Map(loginItem("x", tt.tags, nil))
			assert.Nil(t, target)
			assert.Equal(t, tt.want, reason)
		})
	}
}

func longName(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestMap_EmptyDataIsValid(t *testing.T) {
	t.Parallel()

	m := New()
	item := vault.Item{
		ID:           "note-1",
		Type:         vault.ItemTypeSecureNote,
		Tags:         []string{"ns=prod", "secret=empty"},
		RevisionDate: testRevision,
	}

	target, reason := m.Map(item)
	require.Empty(t, reason)
	require.NotNil(t, target, "an empty secret is still a valid sync target")
	assert.Empty(t, target.Data)
	assert.NotEmpty(t, target.Fingerprint)
}

func TestMap_ExplicitFieldShadowsLogin(t *testing.T) {
	t.Parallel()

	m := New()
	item := loginItem("item-1", []string{"ns=prod", "secret=db"}, map[string]string{"password": "override"})

	target, reason := m.Map(item)
	require.Empty(t, reason)
	assert.Equal(t, "override", target.Data["password"])
	assert.Equal(t, "u", target.Data["username"])
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	t.Parallel()

	a := map[string]string{"user": "u", "pass": "p", "host": "h"}
	b := map[string]string{"host": "h", "pass": "p", "user": "u"}

	assert.Equal(t, Fingerprint(a, testRevision), Fingerprint(b, testRevision),
		"key insertion order must not affect the fingerprint")
}

func TestFingerprint_ValueSensitive(t *testing.T) {
	t.Parallel()

	base := Fingerprint(map[string]string{"user": "u", "pass": "p"}, testRevision)
	changed := Fingerprint(map[string]string{"user": "u", "pass": "p2"}, testRevision)
	assert.NotEqual(t, base, changed, "changing a value must change the fingerprint")

	laterRevision := Fingerprint(map[string]string{"user": "u", "pass": "p"}, testRevision.Add(time.Minute))
	assert.NotEqual(t, base, laterRevision, "changing the revision must change the fingerprint")
}

func TestFingerprint_KeyValueBoundary(t *testing.T) {
	t.Parallel()

	// {"ab": "c"} and {"a": "bc"} must not collide.
	a := Fingerprint(map[string]string{"ab": "c"}, testRevision)
	b := Fingerprint(map[string]string{"a": "bc"}, testRevision)
	assert.NotEqual(t, a, b)

	// A value embedding separator bytes must not collide with a distinct
	// pair. PEM material makes newline-bearing values routine.
	c := Fingerprint(map[string]string{"a": "1\nb=2"}, testRevision)
	d := Fingerprint(map[string]string{"a": "1", "b": "2"}, testRevision)
	assert.NotEqual(t, c, d)
}
