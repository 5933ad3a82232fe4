package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/authcache/credential"
	"github.com/jonwraymond/authcache/secret"
)

// Default header names for non-bearer credential material.
const (
	DefaultClientTokenHeader = "X-Client-Token"
	DefaultAPIKeyHeader      = "X-API-Key"
)

// maxErrorBodyBytes caps how much of an error response body is kept.
const maxErrorBodyBytes = 2048

// HTTPConfig configures the HTTP controller client.
type HTTPConfig struct {
	// BaseURL is the controller's base URL. Required.
	BaseURL string

	// Timeout is the HTTP request timeout.
	// Default: 10 seconds.
	Timeout time.Duration

	// ClientToken is the material presented for the client-token method.
	ClientToken string

	// ClientID and ClientSecret are the material presented for the
	// client-credentials method.
	ClientID     string
	ClientSecret string

	// ClientTokenHeader is the header carrying the client token.
	// Default: "X-Client-Token"
	ClientTokenHeader string

	// APIKeyHeader is the header carrying the api key.
	// Default: "X-API-Key"
	APIKeyHeader string

	// HTTPClient is the HTTP client to use. If nil, a default client is used.
	HTTPClient *http.Client
}

// ResolveSecrets expands environment references in the config's
// credential fields, so deployments can write "${AUTH_CLIENT_TOKEN}" in
// configuration instead of inlining material. A referenced variable
// missing from the environment is an error.
func (c *HTTPConfig) ResolveSecrets() error {
	return secret.ExpandAll(map[string]*string{
		"base_url":      &c.BaseURL,
		"client_token":  &c.ClientToken,
		"client_id":     &c.ClientID,
		"client_secret": &c.ClientSecret,
	})
}

// HTTPClient talks to the identity controller over HTTP.
type HTTPClient struct {
	config     HTTPConfig
	httpClient *http.Client
}

// NewHTTPClient creates a controller client for the given base URL.
func NewHTTPClient(config HTTPConfig) (*HTTPClient, error) {
	if config.BaseURL == "" {
		return nil, errors.New("controller: base URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.ClientTokenHeader == "" {
		config.ClientTokenHeader = DefaultClientTokenHeader
	}
	if config.APIKeyHeader == "" {
		config.APIKeyHeader = DefaultAPIKeyHeader
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &HTTPClient{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// envelope is the controller's response wrapper for all reads.
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// permissionsPayload is the data shape of permission reads.
type permissionsPayload struct {
	Permissions []string `json:"permissions"`
}

// ValidateToken asks the controller whether the token is valid.
func (c *HTTPClient) ValidateToken(ctx context.Context, token string, strat credential.Strategy) (*ValidateResult, error) {
	body := map[string]string{"token": token}

	var result ValidateResult
	if err := c.call(ctx, http.MethodPost, "/auth/validate", nil, body, &strat, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUser fetches the identity behind the presented credentials.
func (c *HTTPClient) GetUser(ctx context.Context, strat credential.Strategy) (*ValidateResult, error) {
	var result ValidateResult
	if err := c.call(ctx, http.MethodGet, "/auth/user", nil, nil, &strat, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login starts an interactive login flow. The call carries no credential
// material; redirect and state travel as query parameters.
func (c *HTTPClient) Login(ctx context.Context, redirect, state string) (*LoginResult, error) {
	query := url.Values{}
	query.Set("redirect", redirect)
	if state != "" {
		query.Set("state", state)
	}

	var result LoginResult
	if err := c.call(ctx, http.MethodGet, "/auth/login", query, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout ends the session behind the token. A 400 from the controller is
// returned as a *StatusError; callers decide whether "no active session"
// counts as success.
func (c *HTTPClient) Logout(ctx context.Context, token string) (*LogoutResult, error) {
	body := map[string]string{"token": token}
	strat := credential.Resolve(nil, token)

	var result LogoutResult
	if err := c.call(ctx, http.MethodPost, "/auth/logout", nil, body, &strat, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RefreshToken exchanges a refresh token for a new token pair.
func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string, strat credential.Strategy) (*TokenPair, error) {
	body := map[string]string{"refreshToken": refreshToken}

	var result TokenPair
	if err := c.call(ctx, http.MethodPost, "/auth/refresh", nil, body, &strat, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPermissions fetches the permissions of the presented identity.
func (c *HTTPClient) GetPermissions(ctx context.Context, query map[string]string, strat credential.Strategy) ([]string, error) {
	var payload permissionsPayload
	if err := c.call(ctx, http.MethodGet, "/auth/permissions", toValues(query), nil, &strat, &payload); err != nil {
		return nil, err
	}
	return payload.Permissions, nil
}

// RefreshPermissions recomputes permissions server-side.
func (c *HTTPClient) RefreshPermissions(ctx context.Context, query map[string]string, strat credential.Strategy) ([]string, error) {
	var payload permissionsPayload
	if err := c.call(ctx, http.MethodPost, "/auth/permissions/refresh", toValues(query), nil, &strat, &payload); err != nil {
		return nil, err
	}
	return payload.Permissions, nil
}

// call performs one controller request and decodes the enveloped payload
// into out. strat may be nil for unauthenticated endpoints.
func (c *HTTPClient) call(ctx context.Context, method, path string, query url.Values, body any, strat *credential.Strategy, out any) error {
	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("controller: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("controller: create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if strat != nil {
		if err := c.applyStrategy(req, *strat); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCallFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode error: %v", ErrUnexpectedEnvelope, err)
	}
	if !env.Success {
		return fmt.Errorf("%w: server reported failure", ErrCallFailed)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", ErrUnexpectedEnvelope, err)
		}
	}
	return nil
}

// applyStrategy attaches the credential material for every listed method
// as outgoing headers, in method order. Missing material is a
// configuration defect and is surfaced, never silently dropped.
func (c *HTTPClient) applyStrategy(req *http.Request, strat credential.Strategy) error {
	if err := strat.Validate(); err != nil {
		return err
	}

	for _, m := range strat.Methods {
		switch m {
		case credential.MethodBearer:
			req.Header.Set("Authorization", "Bearer "+strat.BearerToken)
		case credential.MethodClientToken:
			if c.config.ClientToken == "" {
				return ErrMissingClientToken
			}
			req.Header.Set(c.config.ClientTokenHeader, c.config.ClientToken)
		case credential.MethodClientCredentials:
			if c.config.ClientID == "" || c.config.ClientSecret == "" {
				return ErrMissingClientID
			}
			req.SetBasicAuth(c.config.ClientID, c.config.ClientSecret)
		case credential.MethodAPIKey:
			req.Header.Set(c.config.APIKeyHeader, strat.APIKey)
		}
	}
	return nil
}

func toValues(query map[string]string) url.Values {
	if len(query) == 0 {
		return nil
	}
	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	return values
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
