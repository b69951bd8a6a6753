package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dkazmin/careerpilot/internal/trajectory"
)

// TrajectoryClient talks to the trajectory service of the ML API.
type TrajectoryClient struct {
	BaseURL string
	Client  *http.Client
}

func NewTrajectoryClient(baseURL string, timeout time.Duration) *TrajectoryClient {
	if baseURL == "" {
		baseURL = "http://localhost:8044"
	}
	return &TrajectoryClient{
		BaseURL: baseURL,
		Client:  newHTTPClient(timeout),
	}
}

// Build triggers trajectory construction for a completed session. The caller
// is responsible for only invoking this once the interview is complete; the
// remote service rejects anything else with a reason string, which comes back
// as *BuildFailedError and is surfaced to the user verbatim.
func (c *TrajectoryClient) Build(ctx context.Context, req trajectory.BuildRequest) (*trajectory.Data, error) {
	req.ApplyDefaults()

	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/trajectory/build", c.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("build trajectory: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	// 4xx carries a domain reason (e.g. "insufficient profile data"); 5xx and
	// transport-level trouble stay generic.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		reason := upstreamError(readBody(resp))
		if reason == "" {
			reason = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, &BuildFailedError{Reason: reason}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusFailure("build trajectory", resp.StatusCode, readBody(resp))
	}

	var data trajectory.Data
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("build trajectory: %v: %w", err, ErrGatewayUnavailable)
	}
	if data.SessionID == "" {
		return nil, fmt.Errorf("build trajectory: missing session_id: %w", ErrUnexpectedResponse)
	}
	return &data, nil
}

// ListByUser returns a user's stored trajectories. Absence is a normal state:
// a 404 or empty body yields an empty slice, never an error. Order is
// whatever the service returns; callers must not assume a sort.
func (c *TrajectoryClient) ListByUser(ctx context.Context, userID string) ([]trajectory.Data, error) {
	url := fmt.Sprintf("%s/trajectory/user/%s", c.BaseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list trajectories: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []trajectory.Data{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusFailure("list trajectories", resp.StatusCode, readBody(resp))
	}

	var list []trajectory.Data
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("list trajectories: %v: %w", err, ErrGatewayUnavailable)
	}
	if list == nil {
		list = []trajectory.Data{}
	}
	return list, nil
}
