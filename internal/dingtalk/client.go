package dingtalk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dingrelay/dingrelay/internal/logging"
)

const sendTimeout = 30 * time.Second

// apiResult is the platform's JSON response to a robot send. The HTTP status
// is 200 even on rejection; errcode carries the real outcome.
type apiResult struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Client delivers encoded payloads to robot send endpoints.
type Client struct {
	http *http.Client
	log  *logging.Logger
}

// NewClient creates a delivery client.
func NewClient(log *logging.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: sendTimeout},
		log:  log.Sub("dingtalk"),
	}
}

// Send posts an encoded payload to the endpoint. It returns an error on
// transport failure, non-2xx status, or a non-zero platform errcode. No
// retries; the caller decides whether a failure is worth surfacing.
func (c *Client) Send(ctx context.Context, endpoint Endpoint, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s endpoint: %w", endpoint.Kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("reading send response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s endpoint returned status %d: %s", endpoint.Kind, resp.StatusCode, body)
	}

	var result apiResult
	if err := json.Unmarshal(body, &result); err == nil && result.ErrCode != 0 {
		return fmt.Errorf("%s endpoint rejected send: errcode=%d errmsg=%q", endpoint.Kind, result.ErrCode, result.ErrMsg)
	}

	c.log.Debug().Str("kind", string(endpoint.Kind)).Msg("payload delivered")
	return nil
}
