package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// The upstream services set no deadline of their own, so each client carries
// a hard timeout; expiry surfaces as ErrGatewayUnavailable.
const DefaultTimeout = 30 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// upstreamError extracts the human-readable reason from an error body.
// The ML service uses {"detail": ...} (and sometimes {"error": ...}); a body
// that is not JSON is returned as raw text.
func upstreamError(body []byte) string {
	var decoded struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		if decoded.Detail != "" {
			return decoded.Detail
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	return string(body)
}

func readBody(resp *http.Response) []byte {
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}
	return b
}

func statusFailure(op string, status int, body []byte) error {
	reason := upstreamError(body)
	if reason == "" {
		return fmt.Errorf("%s: status %d: %w", op, status, ErrGatewayUnavailable)
	}
	return fmt.Errorf("%s: status %d: %s: %w", op, status, reason, ErrGatewayUnavailable)
}
