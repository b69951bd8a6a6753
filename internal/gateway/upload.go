package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// UploadClient sends resume PDFs to the ML API for profile parsing.
type UploadClient struct {
	BaseURL string
	Client  *http.Client
}

func NewUploadClient(baseURL string, timeout time.Duration) *UploadClient {
	if baseURL == "" {
		baseURL = "http://localhost:8044"
	}
	return &UploadClient{
		BaseURL: baseURL,
		Client:  newHTTPClient(timeout),
	}
}

// UploadResume re-frames the file as multipart and forwards it to
// POST /profile/upload. The upstream response is forwarded 1:1.
func (c *UploadClient) UploadResume(ctx context.Context, filename string, file io.Reader) (*ProxyResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/profile/upload", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload resume: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()
	return toProxyResult(resp), nil
}
