package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SessionClient talks to the interview service of the ML API.
type SessionClient struct {
	BaseURL string
	Client  *http.Client
}

func NewSessionClient(baseURL string, timeout time.Duration) *SessionClient {
	if baseURL == "" {
		baseURL = "http://localhost:8044"
	}
	return &SessionClient{
		BaseURL: baseURL,
		Client:  newHTTPClient(timeout),
	}
}

// RemoteMessage is one message as stored by the interview service.
// Done is set only on assistant messages and only once the interview is over.
type RemoteMessage struct {
	MessageID string `json:"message_id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	Done      *bool  `json:"done,omitempty"`
}

type RemoteSession struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// SessionRecord is the full fetch result: session header plus message log.
type SessionRecord struct {
	Session  RemoteSession   `json:"session"`
	Messages []RemoteMessage `json:"messages"`
}

// ChatTurn is the reply to one user message.
type ChatTurn struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Done      bool   `json:"done"`
}

type createSessionResp struct {
	SessionID string `json:"session_id"`
}

// CreateSession asks the interview service for a fresh session id.
func (c *SessionClient) CreateSession(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/sessions", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create session: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusFailure("create session", resp.StatusCode, readBody(resp))
	}

	var decoded createSessionResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("create session: %v: %w", err, ErrGatewayUnavailable)
	}
	if decoded.SessionID == "" {
		return "", fmt.Errorf("create session: missing session_id: %w", ErrUnexpectedResponse)
	}
	return decoded.SessionID, nil
}

// FetchSession loads a session with its message log. A 404 maps to
// ErrNotFound so callers can invalidate a dangling local pointer instead of
// showing an error.
func (c *SessionClient) FetchSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	url := fmt.Sprintf("%s/sessions/%s", c.BaseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetch session %s: %w", sessionID, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusFailure("fetch session", resp.StatusCode, readBody(resp))
	}

	var record SessionRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("fetch session: %v: %w", err, ErrGatewayUnavailable)
	}
	if record.Session.SessionID == "" {
		return nil, fmt.Errorf("fetch session: missing session_id: %w", ErrUnexpectedResponse)
	}
	return &record, nil
}

type chatReq struct {
	Text string `json:"text"`
}

// SendMessage forwards one user turn. An empty sessionID is a programming
// error in the caller, not a runtime condition to recover from.
func (c *SessionClient) SendMessage(ctx context.Context, sessionID, text string) (*ChatTurn, error) {
	if sessionID == "" {
		panic("gateway: SendMessage with empty session id")
	}

	b, err := json.Marshal(chatReq{Text: text})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/chat/%s", c.BaseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send message: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusFailure("send message", resp.StatusCode, readBody(resp))
	}

	var turn ChatTurn
	if err := json.NewDecoder(resp.Body).Decode(&turn); err != nil {
		return nil, fmt.Errorf("send message: %v: %w", err, ErrGatewayUnavailable)
	}
	if turn.Reply == "" {
		return nil, fmt.Errorf("send message: missing reply: %w", ErrUnexpectedResponse)
	}
	return &turn, nil
}
