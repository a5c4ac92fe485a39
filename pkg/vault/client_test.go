// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardensync/wardensync/pkg/errors"
)

func newVaultServer(t *testing.T, ciphers []map[string]any, folders []map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/connect/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostFormValue("client_id") != "user.test" || r.PostFormValue("client_secret") != "s3cret" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(t, w, map[string]any{
			"access_token": "test-token",
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
	})
	mux.HandleFunc("/api/ciphers", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(t, w, map[string]any{"data": ciphers})
	})
	mux.HandleFunc("/api/ciphers/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/ciphers/"):]
		for _, c := range ciphers {
			if c["id"] == id {
				writeJSON(t, w, c)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/api/folders", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"data": folders})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func testConfig(serverURL string) Config {
	return Config{
		ServerURL:    serverURL,
		ClientID:     "user.test",
		ClientSecret: "s3cret",
		MaxRetries:   2,
	}
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))

	_, err = NewClient(Config{ServerURL: "http://vault.local"})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestListItems(t *testing.T) {
	t.Parallel()

	revision := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ciphers := []map[string]any{
		{
			"id":           "item-1",
			"name":         "db credentials",
			"type":         1,
			"folderId":     "folder-1",
			"login":        map[string]any{"username": "u", "password": "p"},
			"fields":       []map[string]any{{"name": "extra", "value": "v", "type": 0}},
			"revisionDate": revision,
		},
		{
			"id":           "item-2",
			"name":         "trashed",
			"type":         2,
			"folderId":     "folder-1",
			"revisionDate": revision,
			"deletedDate":  revision,
		},
		{
			"id":           "item-3",
			"name":         "unfiled note",
			"type":         2,
			"revisionDate": revision,
		},
	}
	folders := []map[string]any{
		{"id": "folder-1", "name": "ns=prod, secret=db-creds"},
	}
	srv := newVaultServer(t, ciphers, folders)

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	items, err := c.ListItems(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 2, "trashed items must be dropped")

	first := items[0]
	assert.Equal(t, "item-1", first.ID)
	assert.Equal(t, ItemTypeLogin, first.Type)
	assert.Equal(t, "ns=prod, secret=db-creds", first.FolderName)
	assert.Equal(t, []string{"ns=prod", "secret=db-creds"}, first.Tags)
	assert.Equal(t, map[string]string{"extra": "v"}, first.Fields)
	require.NotNil(t, first.Login)
	assert.Equal(t, "u", first.Login.Username)
	assert.True(t, first.RevisionDate.Equal(revision))

	assert.Empty(t, items[1].Tags, "unfiled item has no tags")
}

func TestListItems_OrganizationFilter(t *testing.T) {
	t.Parallel()

	ciphers := []map[string]any{
		{"id": "mine", "name": "a", "type": 2, "organizationId": "org-1", "revisionDate": time.Now().UTC()},
		{"id": "other", "name": "b", "type": 2, "organizationId": "org-2", "revisionDate": time.Now().UTC()},
		{"id": "personal", "name": "c", "type": 2, "revisionDate": time.Now().UTC()},
	}
	srv := newVaultServer(t, ciphers, nil)

	cfg := testConfig(srv.URL)
	cfg.OrganizationID = "org-1"
	c, err := NewClient(cfg)
	require.NoError(t, err)

	items, err := c.ListItems(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "mine", items[0].ID)
}

func TestListItems_FolderPrefix(t *testing.T) {
	t.Parallel()

	ciphers := []map[string]any{
		{"id": "in", "name": "a", "type": 2, "folderId": "f1", "revisionDate": time.Now().UTC()},
		{"id": "out", "name": "b", "type": 2, "folderId": "f2", "revisionDate": time.Now().UTC()},
	}
	folders := []map[string]any{
		{"id": "f1", "name": "k8s/ns=dev,secret=api-key"},
		{"id": "f2", "name": "personal stuff"},
	}
	srv := newVaultServer(t, ciphers, folders)

	cfg := testConfig(srv.URL)
	cfg.FolderPrefix = "k8s/"
	c, err := NewClient(cfg)
	require.NoError(t, err)

	items, err := c.ListItems(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "in", items[0].ID)
	assert.Equal(t, []string{"ns=dev", "secret=api-key"}, items[0].Tags)
}

func TestListItems_FieldTypes(t *testing.T) {
	t.Parallel()

	ciphers := []map[string]any{
		{
			"id":       "item-1",
			"name":     "mixed fields",
			"type":     2,
			"folderId": "f1",
			"fields": []map[string]any{
				{"name": "plain", "value": "a", "type": 0},
				{"name": "hush", "value": "b", "type": 1},
				{"name": "flag", "value": "true", "type": 2},
				{"name": "linked", "value": "", "type": 3},
				{"name": "", "value": "nameless", "type": 0},
			},
			"revisionDate": time.Now().UTC(),
		},
	}
	folders := []map[string]any{{"id": "f1", "name": "ns=prod,secret=x"}}
	srv := newVaultServer(t, ciphers, folders)

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	items, err := c.ListItems(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, map[string]string{
		"plain": "a",
		"hush":  "b",
		"flag":  "true",
	}, items[0].Fields, "text, hidden and boolean fields sync; linked and nameless fields do not")
}

func TestGetItem_NotFound(t *testing.T) {
	t.Parallel()

	srv := newVaultServer(t, nil, nil)
	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	item, err := c.GetItem(t.Context(), "missing")
	require.NoError(t, err, "a vault 404 is a domain outcome, not an error")
	assert.Nil(t, item)
}

func TestGetItem_Found(t *testing.T) {
	t.Parallel()

	ciphers := []map[string]any{
		{"id": "item-1", "name": "a", "type": 1, "folderId": "f1", "revisionDate": time.Now().UTC()},
	}
	folders := []map[string]any{{"id": "f1", "name": "ns=prod,secret=x"}}
	srv := newVaultServer(t, ciphers, folders)

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	item, err := c.GetItem(t.Context(), "item-1")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.False(t, item.Deleted)
	assert.Equal(t, []string{"ns=prod", "secret=x"}, item.Tags)
}

func TestGetItem_Trashed(t *testing.T) {
	t.Parallel()

	ciphers := []map[string]any{
		{"id": "item-1", "name": "a", "type": 2, "revisionDate": time.Now().UTC(), "deletedDate": time.Now().UTC()},
	}
	srv := newVaultServer(t, ciphers, nil)

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	item, err := c.GetItem(t.Context(), "item-1")
	require.NoError(t, err)
	assert.Nil(t, item, "a trashed item is treated as absent")
}

func TestGetJSON_RetriesOnServerError(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/connect/token", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"access_token": "test-token", "expires_in": 3600})
	})
	mux.HandleFunc("/api/folders", func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(t, w, map[string]any{"data": []any{}})
	})
	mux.HandleFunc("/api/ciphers", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"data": []any{}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.ListItems(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestAuthFailure(t *testing.T) {
	t.Parallel()

	srv := newVaultServer(t, nil, nil)
	cfg := testConfig(srv.URL)
	cfg.ClientSecret = "wrong"
	c, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = c.ListItems(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsVaultAuth(err))
}

func TestTagsFromFolderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		folder string
		want   []string
	}{
		{"empty", "", nil},
		{"single", "ns=prod", []string{"ns=prod"}},
		{"pair", "ns=prod,secret=db", []string{"ns=prod", "secret=db"}},
		{"whitespace", " ns=prod , secret=db ", []string{"ns=prod", "secret=db"}},
		{"empty segments", "ns=prod,,", []string{"ns=prod"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TagsFromFolderName(tt.folder))
		})
	}
}
