// Package github holds the thin, stateless REST collaborators the triage
// core consumes: the template source, label listing, and publishing.
// No triage logic lives here.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const DefaultBaseURL = "https://api.github.com"

// Config holds client configuration.
type Config struct {
	Token   string
	BaseURL string // Override for GitHub Enterprise / tests
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client is a minimal GitHub REST client.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a new GitHub REST client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger,
	}
}

// do performs one REST call with bounded retries on transient failures.
// Client errors (4xx) are not retried.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			req.Header.Set("Accept", "application/vnd.github+json")
			req.Header.Set("Content-Type", "application/json")
			if c.token != "" {
				req.Header.Set("Authorization", "Bearer "+c.token)
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("GitHub error (status %d): %s", resp.StatusCode, string(respBody))
			}
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return retry.Unrecoverable(
					fmt.Errorf("GitHub error (status %d): %s", resp.StatusCode, string(respBody)))
			}

			if out != nil {
				if err := json.Unmarshal(respBody, out); err != nil {
					return retry.Unrecoverable(fmt.Errorf("failed to unmarshal response: %w", err))
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(4),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

// GetIssue fetches one issue.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &issue); err != nil {
		return nil, fmt.Errorf("failed to fetch issue #%d: %w", number, err)
	}
	return &issue, nil
}

// ListLabels returns the names of all labels defined in the repository.
func (c *Client) ListLabels(ctx context.Context, owner, repo string) ([]string, error) {
	var labels []struct {
		Name string `json:"name"`
	}
	path := fmt.Sprintf("/repos/%s/%s/labels?per_page=100", owner, repo)
	if err := c.do(ctx, http.MethodGet, path, nil, &labels); err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names, nil
}
