package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rickparamanik/quorumkv/internal/model"
	"go.uber.org/zap"
)

// HTTPPeerClient speaks the internal peer API over HTTP. Node
// identities are host:port addresses, so the target URL is derived
// directly from the ring member.
type HTTPPeerClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPPeerClient creates a peer client. The client-level timeout is
// a backstop; callers bound each call with a context deadline.
func NewHTTPPeerClient(timeout time.Duration, logger *zap.Logger) *HTTPPeerClient {
	if timeout == 0 {
		timeout = 2 * time.Second
	}

	return &HTTPPeerClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WriteRecord issues an internal write to a peer. The peer appends the
// entry to its own log and applies it under last-write-wins.
func (c *HTTPPeerClient) WriteRecord(ctx context.Context, node string, entry *model.LogEntry) error {
	body, err := json.Marshal(model.InternalWriteRequest{
		Value:     entry.Value,
		Timestamp: entry.Timestamp,
		Checksum:  entry.Checksum,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal internal write: %w", err)
	}

	endpoint := fmt.Sprintf("http://%s/internal/store/%s", node, url.PathEscape(entry.Key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build internal write request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("internal write to %s failed: %w", node, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("internal write to %s returned status %d", node, resp.StatusCode)
	}

	var writeResp model.InternalWriteResponse
	if err := json.NewDecoder(resp.Body).Decode(&writeResp); err != nil {
		return fmt.Errorf("failed to decode internal write response from %s: %w", node, err)
	}
	if !writeResp.Success {
		return fmt.Errorf("internal write to %s rejected: %s", node, writeResp.Error)
	}

	return nil
}

// ReadRecord issues an internal read to a peer. An absent key is not
// an error: it returns (nil, nil) so the coordinator counts the reply
// as empty rather than failed.
func (c *HTTPPeerClient) ReadRecord(ctx context.Context, node string, key string) (*model.Record, error) {
	endpoint := fmt.Sprintf("http://%s/internal/store/%s", node, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build internal read request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("internal read from %s failed: %w", node, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("internal read from %s returned status %d", node, resp.StatusCode)
	}

	var readResp model.InternalReadResponse
	if err := json.NewDecoder(resp.Body).Decode(&readResp); err != nil {
		return nil, fmt.Errorf("failed to decode internal read response from %s: %w", node, err)
	}

	if !readResp.Found {
		return nil, nil
	}
	return &model.Record{Value: readResp.Value, Timestamp: readResp.Timestamp}, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
