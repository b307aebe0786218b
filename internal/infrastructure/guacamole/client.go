// Package guacamole is a REST client for the Apache Guacamole gateway. It
// manages RDP connections dynamically so each clinical session gets its own
// connection, torn down when the session ends.
package guacamole

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/config"
	"dicomdesk/internal/shared/logger"
)

const (
	requestTimeout = 10 * time.Second
	// Maximum response body size for gateway API responses (256KB)
	maxResponseSize = 256 << 10
)

// Client implements session.DisplayGateway against the Guacamole REST API.
type Client struct {
	baseURL       string
	adminUser     string
	adminPassword string
	dataSource    string
	httpClient    *http.Client
	logger        logger.Interface

	// Admin token cache. Guacamole tokens expire server-side; an expired
	// token is detected on 401/403 and refreshed once per call.
	mu    sync.Mutex
	token string
}

// NewClient creates a new gateway client.
func NewClient(cfg *config.GuacamoleConfig, log logger.Interface) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		adminUser:     cfg.AdminUser,
		adminPassword: cfg.AdminPassword,
		dataSource:    cfg.DataSource,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: log.Named("guacamole"),
	}
}

var _ session.DisplayGateway = (*Client)(nil)

// connectionRequest is the gateway's connection creation payload.
type connectionRequest struct {
	ParentIdentifier string            `json:"parentIdentifier"`
	Name             string            `json:"name"`
	Protocol         string            `json:"protocol"`
	Parameters       map[string]string `json:"parameters"`
	Attributes       map[string]string `json:"attributes"`
}

// CreateConnection registers an RDP connection with visual effects disabled
// for responsiveness over constrained links.
func (c *Client) CreateConnection(ctx context.Context, name, host string, port int, loginUser, loginPassword string) (string, error) {
	payload := connectionRequest{
		ParentIdentifier: "ROOT",
		Name:             name,
		Protocol:         "rdp",
		Parameters: map[string]string{
			"hostname":                   host,
			"port":                       strconv.Itoa(port),
			"username":                   loginUser,
			"password":                   loginPassword,
			"security":                   "rdp",
			"ignore-cert":                "true",
			"enable-wallpaper":           "false",
			"enable-theming":             "false",
			"enable-font-smoothing":      "false",
			"enable-full-window-drag":    "false",
			"enable-desktop-composition": "false",
			"enable-menu-animations":     "false",
		},
		Attributes: map[string]string{},
	}

	var result struct {
		Identifier string `json:"identifier"`
	}
	path := fmt.Sprintf("/api/session/data/%s/connections", c.dataSource)
	if err := c.doAuthorized(ctx, http.MethodPost, path, payload, &result); err != nil {
		return "", fmt.Errorf("failed to create connection: %w", err)
	}
	if result.Identifier == "" {
		return "", fmt.Errorf("gateway returned empty connection identifier")
	}

	c.logger.Infow("connection created", "connection_id", result.Identifier, "name", name)
	return result.Identifier, nil
}

// DeleteConnection removes a connection. An already-deleted connection is
// not an error.
func (c *Client) DeleteConnection(ctx context.Context, connectionID string) error {
	path := fmt.Sprintf("/api/session/data/%s/connections/%s", c.dataSource, url.PathEscape(connectionID))
	err := c.doAuthorized(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		var statusErr *statusError
		if asStatusError(err, &statusErr) && statusErr.code == http.StatusNotFound {
			c.logger.Warnw("connection already deleted", "connection_id", connectionID)
			return nil
		}
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	c.logger.Infow("connection deleted", "connection_id", connectionID)
	return nil
}

// IssueAccessToken returns a token granting access to the connection. The
// gateway has no per-connection token API; the admin token is issued and the
// requester recorded for the audit trail.
func (c *Client) IssueAccessToken(ctx context.Context, connectionID, requesterName string) (string, error) {
	token, err := c.currentToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	c.logger.Infow("access token issued", "connection_id", connectionID, "requester", requesterName)
	return token, nil
}

// BuildClientURL assembles the browser URL for a connection and token.
func (c *Client) BuildClientURL(connectionID, token string) string {
	return fmt.Sprintf("%s/#/client/%s?token=%s", c.baseURL, connectionID, url.QueryEscape(token))
}

// doAuthorized performs one authenticated request, retrying exactly once
// with a fresh token when the cached one has expired.
func (c *Client) doAuthorized(ctx context.Context, method, path string, payload, result any) error {
	token, err := c.currentToken(ctx)
	if err != nil {
		return err
	}

	err = c.do(ctx, method, path, token, payload, result)
	var statusErr *statusError
	if asStatusError(err, &statusErr) && (statusErr.code == http.StatusUnauthorized || statusErr.code == http.StatusForbidden) {
		c.invalidateToken(token)
		token, err = c.currentToken(ctx)
		if err != nil {
			return err
		}
		return c.do(ctx, method, path, token, payload, result)
	}

	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Guacamole-Token", token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: string(raw)}
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}

	return nil
}

// currentToken returns the cached admin token, authenticating when none is
// cached.
func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("username", c.adminUser)
	form.Set("password", c.adminPassword)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tokens", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway auth request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read auth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, body: string(raw)}
	}

	var result struct {
		AuthToken string `json:"authToken"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	if result.AuthToken == "" {
		return "", fmt.Errorf("gateway returned empty auth token")
	}

	c.token = result.AuthToken
	return c.token, nil
}

// invalidateToken drops the cached token if it is still the one that failed.
func (c *Client) invalidateToken(failed string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == failed {
		c.token = ""
	}
}

// statusError is a non-2xx gateway response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.code, e.body)
}

func asStatusError(err error, target **statusError) bool {
	if err == nil {
		return false
	}
	se, ok := err.(*statusError)
	if !ok {
		return false
	}
	*target = se
	return true
}
