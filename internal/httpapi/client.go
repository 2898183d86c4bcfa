package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/saltyorg/sam/pkg/logger"
)

// Client is a thin HTTP client for an external process to drive a
// running control-plane server — e.g. a CI step that starts a
// keep_running environment, waits for it, then starts or stops one of
// its components. Kept as a stdlib net/http wrapper rather than a third-party
// HTTP client library, since the server it talks to is this same
// module's own control plane.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a Client against baseURL (e.g. "http://127.0.0.1:3377").
func NewClient(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
	}
}

// StartComponent submits a Start job for name and returns its job id.
func (c *Client) StartComponent(ctx context.Context, name string) (string, error) {
	var resp JobResponse
	if err := c.post(ctx, "/components/"+name+"/start", nil, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// StopComponent submits a Stop job for name and returns its job id.
func (c *Client) StopComponent(ctx context.Context, name string) (string, error) {
	var resp JobResponse
	if err := c.post(ctx, "/components/"+name+"/stop", nil, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// JobStatus is the subset of a polled job useful to an external caller.
type JobStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// GetJob retrieves a job's current status.
func (c *Client) GetJob(ctx context.Context, jobID string) (*JobStatus, error) {
	var job JobStatus
	if err := c.get(ctx, "/jobs/"+jobID, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// WaitForJob polls GetJob every pollInterval until it reaches a
// terminal status (completed or failed).
func (c *Client) WaitForJob(ctx context.Context, jobID string, pollInterval time.Duration) (*JobStatus, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			job, err := c.GetJob(ctx, jobID)
			if err != nil {
				return nil, fmt.Errorf("get job status: %w", err)
			}
			c.logger.Debug("job status", "job_id", jobID, "status", job.Status)
			if job.Status == "completed" || job.Status == "failed" {
				return job, nil
			}
		}
	}
}

// WaitForServerReady polls /ping until the server answers healthy or
// timeout elapses.
func (c *Client) WaitForServerReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return fmt.Errorf("timeout waiting for server to become ready")
			}
			var resp map[string]string
			if err := c.get(ctx, "/ping", &resp); err == nil && resp["status"] == "healthy" {
				return nil
			}
		}
	}
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
