// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wardensync/wardensync/pkg/errors"
	"github.com/wardensync/wardensync/pkg/logger"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client is the read-only vault API surface consumed by the sync engine.
type Client interface {
	// ListItems returns all non-deleted items visible to the client,
	// with folder names resolved and tags derived.
	ListItems(ctx context.Context) ([]Item, error)
	// GetItem returns a single item by id. A vault 404 or a trashed item
	// yields (nil, nil): absence is a domain outcome, not an error.
	GetItem(ctx context.Context, id string) (*Item, error)
}

// Config holds the connection settings for a Vaultwarden-compatible server.
type Config struct {
	// ServerURL is the base URL of the Vaultwarden server.
	ServerURL string
	// IdentityURL is the token endpoint base. Defaults to ServerURL + "/identity".
	IdentityURL string
	// ClientID and ClientSecret are the Bitwarden user API key credentials.
	ClientID     string
	ClientSecret string
	// OrganizationID, when set, restricts the client to items of that organization.
	OrganizationID string
	// FolderPrefix, when set, restricts the client to items whose folder name
	// starts with the prefix; the prefix is stripped before tag derivation.
	FolderPrefix string
	// RequestsPerSecond throttles outgoing API calls. Zero means no throttle.
	RequestsPerSecond float64
	// MaxRetries bounds retries of idempotent GETs on 429/5xx responses.
	MaxRetries int
	// HTTPClient overrides the underlying HTTP client, mainly for tests.
	HTTPClient *http.Client
}

const (
	defaultHTTPTimeout = 30 * time.Second
	// tokenExpiryMargin is how close to expiry we refresh the access token.
	tokenExpiryMargin = 30 * time.Second
)

type client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	deviceID   string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a vault client from the given configuration.
func NewClient(cfg Config) (Client, error) {
	if cfg.ServerURL == "" {
		return nil, errors.NewConfigurationError("vault server URL is required", nil)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.NewConfigurationError("vault client id and secret are required", nil)
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = cfg.ServerURL + "/identity"
	}
	cfg.IdentityURL = strings.TrimRight(cfg.IdentityURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &client{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    limiter,
		deviceID:   uuid.NewString(),
	}, nil
}

// ListItems implements Client.
func (c *client) ListItems(ctx context.Context) ([]Item, error) {
	folders, err := c.listFolders(ctx)
	if err != nil {
		return nil, err
	}

	var list cipherListResponse
	if err := c.getJSON(ctx, "/api/ciphers", &list); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(list.Data))
	for i := range list.Data {
		item, ok := c.toItem(&list.Data[i], folders)
		if !ok || item.Deleted {
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

// GetItem implements Client.
func (c *client) GetItem(ctx context.Context, id string) (*Item, error) {
	var cipher apiCipher
	err := c.getJSON(ctx, "/api/ciphers/"+url.PathEscape(id), &cipher)
	if err != nil {
		if stderrors.Is(err, errNotFoundStatus) {
			return nil, nil
		}
		return nil, err
	}

	folders, err := c.listFolders(ctx)
	if err != nil {
		return nil, err
	}

	item, ok := c.toItem(&cipher, folders)
	if !ok || item.Deleted {
		return nil, nil
	}
	return item, nil
}

func (c *client) listFolders(ctx context.Context) (map[string]string, error) {
	var list folderListResponse
	if err := c.getJSON(ctx, "/api/folders", &list); err != nil {
		return nil, err
	}
	folders := make(map[string]string, len(list.Data))
	for _, f := range list.Data {
		folders[f.ID] = f.Name
	}
	return folders, nil
}

// toItem converts an API cipher into an Item, applying the organization and
// folder-prefix filters. Returns false when the cipher is filtered out.
func (c *client) toItem(cipher *apiCipher, folders map[string]string) (*Item, bool) {
	if c.cfg.OrganizationID != "" && cipher.OrganizationID != c.cfg.OrganizationID {
		return nil, false
	}

	folderName := folders[cipher.FolderID]
	if c.cfg.FolderPrefix != "" {
		if !strings.HasPrefix(folderName, c.cfg.FolderPrefix) {
			return nil, false
		}
		folderName = strings.TrimPrefix(folderName, c.cfg.FolderPrefix)
	}

	fields := make(map[string]string, len(cipher.Fields))
	for _, f := range cipher.Fields {
		if f.Name == "" {
			continue
		}
		switch f.Type {
		case fieldTypeText, fieldTypeHidden, fieldTypeBoolean:
			// Hidden and boolean values sync like text; secret data is
			// opaque bytes either way.
			fields[f.Name] = f.Value
		case fieldTypeLinked:
			// Linked fields reference other fields and carry no value of
			// their own.
		}
	}

	item := &Item{
		ID:             cipher.ID,
		Name:           cipher.Name,
		Type:           itemTypeFromCipher(cipher.Type),
		OrganizationID: cipher.OrganizationID,
		FolderID:       cipher.FolderID,
		FolderName:     folderName,
		Tags:           TagsFromFolderName(folderName),
		Fields:         fields,
		RevisionDate:   cipher.RevisionDate,
		Deleted:        cipher.DeletedDate != nil,
	}
	if cipher.Login != nil {
		item.Login = &LoginData{
			Username: cipher.Login.Username,
			Password: cipher.Login.Password,
		}
	}
	return item, true
}

// getJSON performs an authenticated GET against the vault API, retrying on
// 429 and 5xx responses with exponential backoff.
func (c *client) getJSON(ctx context.Context, path string, out any) error {
	operation := func() ([]byte, error) {
		body, status, err := c.doGet(ctx, c.cfg.ServerURL+path)
		if err != nil {
			return nil, err
		}
		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusTooManyRequests || status >= 500:
			return nil, errors.NewTransientStoreError(
				fmt.Sprintf("vault API %s returned status %d", path, status), nil)
		case status == http.StatusNotFound:
			return nil, backoff.Permanent(errNotFoundStatus)
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			// Token may have been revoked; drop it so the next attempt re-authenticates.
			c.invalidateToken()
			return nil, backoff.Permanent(errors.NewVaultAuthError(
				fmt.Sprintf("vault API %s returned status %d", path, status), nil))
		default:
			return nil, backoff.Permanent(errors.NewTransientStoreError(
				fmt.Sprintf("vault API %s returned unexpected status %d", path, status), nil))
		}
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries+1)), // #nosec G115 -- small, validated config value
		backoff.WithNotify(func(err error, duration time.Duration) {
			logger.Debugw("retrying vault API call", "path", path, "delay", duration.String(), "error", err.Error())
		}),
	)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *client) doGet(ctx context.Context, rawURL string) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, 0, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.NewTransientStoreError("vault API request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.NewTransientStoreError("reading vault API response", err)
	}
	return body, resp.StatusCode, nil
}

// token returns a cached access token, refreshing it when it is within
// tokenExpiryMargin of expiry.
func (c *client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > tokenExpiryMargin {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":        {"client_credentials"},
		"scope":             {"api"},
		"client_id":         {c.cfg.ClientID},
		"client_secret":     {c.cfg.ClientSecret},
		"device_type":       {"14"},
		"device_identifier": {c.deviceID},
		"device_name":       {"wardensync"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.IdentityURL+"/connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.NewVaultAuthError("building token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.NewVaultAuthError("vault token request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewVaultAuthError("reading vault token response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.NewVaultAuthError(
			fmt.Sprintf("vault rejected credentials with status %d", resp.StatusCode), nil)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", errors.NewVaultAuthError("decoding vault token response", err)
	}
	if tok.AccessToken == "" {
		return "", errors.NewVaultAuthError("vault token response contained no access token", nil)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func (c *client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

// errNotFoundStatus marks a 404 so GetItem can translate it to (nil, nil).
var errNotFoundStatus = stderrors.New("vault: not found")

// Bitwarden custom field types.
const (
	fieldTypeText    = 0
	fieldTypeHidden  = 1
	fieldTypeBoolean = 2
	fieldTypeLinked  = 3
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type apiLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type apiField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  int    `json:"type"`
}

type apiCipher struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Type           int        `json:"type"`
	OrganizationID string     `json:"organizationId"`
	FolderID       string     `json:"folderId"`
	Login          *apiLogin  `json:"login"`
	Fields         []apiField `json:"fields"`
	RevisionDate   time.Time  `json:"revisionDate"`
	DeletedDate    *time.Time `json:"deletedDate"`
}

type cipherListResponse struct {
	Data []apiCipher `json:"data"`
}

type folderListResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}
