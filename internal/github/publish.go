package github

import (
	"context"
	"fmt"
	"net/http"
)

// Publication is what a completed triage run writes back to an issue.
type Publication struct {
	Title  string
	Body   string
	Labels []string
}

// PublishTriage applies a publication to an issue: body and title update
// plus label addition. Label addition is idempotent on GitHub's side;
// labels already applied are not re-derived here.
func (c *Client) PublishTriage(ctx context.Context, owner, repo string, number int, pub Publication) error {
	issuePath := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)

	update := map[string]any{"body": pub.Body}
	if pub.Title != "" {
		update["title"] = pub.Title
	}
	if err := c.do(ctx, http.MethodPatch, issuePath, update, nil); err != nil {
		return fmt.Errorf("failed to update issue #%d: %w", number, err)
	}

	if len(pub.Labels) > 0 {
		body := map[string]any{"labels": pub.Labels}
		if err := c.do(ctx, http.MethodPost, issuePath+"/labels", body, nil); err != nil {
			return fmt.Errorf("failed to add labels to issue #%d: %w", number, err)
		}
	}

	c.logger.Info("published triage result",
		"repo", owner+"/"+repo, "issue", number, "labels", pub.Labels)
	return nil
}

// CreateComment posts a comment on an issue. Used for failure diagnostics
// when a triage run exhausts its attempts.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
	payload := map[string]any{"body": body}
	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("failed to comment on issue #%d: %w", number, err)
	}
	return nil
}
