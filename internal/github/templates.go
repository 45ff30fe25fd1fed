package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"strings"
)

const templateDir = ".github/ISSUE_TEMPLATE"

// ListTemplates fetches the repository's issue-form template documents,
// keyed by file stem (e.g. "bug_report"). The directory's config.yml and
// non-YAML entries are skipped. The returned documents are raw bytes; the
// caller normalizes them.
func (c *Client) ListTemplates(ctx context.Context, owner, repo string) (map[string][]byte, error) {
	var entries []struct {
		Name string `json:"name"`
		Path string `json:"path"`
		Type string `json:"type"`
	}
	listPath := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, templateDir)
	if err := c.do(ctx, http.MethodGet, listPath, nil, &entries); err != nil {
		return nil, fmt.Errorf("failed to list issue templates: %w", err)
	}

	templates := make(map[string][]byte)
	for _, entry := range entries {
		if entry.Type != "file" || !isTemplateFile(entry.Name) {
			continue
		}

		doc, err := c.fetchContent(ctx, owner, repo, entry.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch template %s: %w", entry.Name, err)
		}

		key := strings.TrimSuffix(entry.Name, path.Ext(entry.Name))
		templates[key] = doc
	}

	return templates, nil
}

func isTemplateFile(name string) bool {
	if name == "config.yml" || name == "config.yaml" {
		return false
	}
	ext := path.Ext(name)
	return ext == ".yml" || ext == ".yaml"
}

func (c *Client) fetchContent(ctx context.Context, owner, repo, filePath string) ([]byte, error) {
	var file struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	p := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, filePath)
	if err := c.do(ctx, http.MethodGet, p, nil, &file); err != nil {
		return nil, err
	}

	if file.Encoding != "base64" {
		return []byte(file.Content), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return decoded, nil
}
