package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProxyResult is an upstream response ready to be replayed to the browser:
// the upstream status code plus a body guaranteed to be valid JSON (raw text
// bodies are wrapped as {"error": rawText}).
type ProxyResult struct {
	Status int
	Body   json.RawMessage
}

func toProxyResult(resp *http.Response) *ProxyResult {
	body := readBody(resp)
	if len(body) == 0 {
		return &ProxyResult{Status: resp.StatusCode, Body: json.RawMessage(`{}`)}
	}
	if json.Valid(body) {
		return &ProxyResult{Status: resp.StatusCode, Body: json.RawMessage(body)}
	}
	wrapped, _ := json.Marshal(map[string]string{"error": string(body)})
	return &ProxyResult{Status: resp.StatusCode, Body: json.RawMessage(wrapped)}
}

// BackendClient talks to the auth/profile backend. All methods are straight
// pass-throughs: only transport failures become errors, every upstream
// status (2xx or not) is returned as a ProxyResult for 1:1 forwarding.
type BackendClient struct {
	BaseURL string
	Client  *http.Client
}

func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}
	return &BackendClient{
		BaseURL: baseURL,
		Client:  newHTTPClient(timeout),
	}
}

// Login forwards form-encoded credentials (OAuth2 password form: username,
// password) to POST /auth/login.
func (c *BackendClient) Login(ctx context.Context, form url.Values) (*ProxyResult, error) {
	endpoint := fmt.Sprintf("%s/auth/login", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()
	return toProxyResult(resp), nil
}

// Register forwards a JSON registration body to POST /auth/register.
func (c *BackendClient) Register(ctx context.Context, body []byte) (*ProxyResult, error) {
	endpoint := fmt.Sprintf("%s/auth/register", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("register: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()
	return toProxyResult(resp), nil
}

// GetProfile forwards GET /profile/me with the caller's bearer token.
func (c *BackendClient) GetProfile(ctx context.Context, bearer string) (*ProxyResult, error) {
	endpoint := fmt.Sprintf("%s/profile/me", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get profile: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()
	return toProxyResult(resp), nil
}

// UpdateProfile forwards PUT /profile/me with the caller's bearer token.
func (c *BackendClient) UpdateProfile(ctx context.Context, bearer string, body []byte) (*ProxyResult, error) {
	endpoint := fmt.Sprintf("%s/profile/me", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("update profile: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()
	return toProxyResult(resp), nil
}
