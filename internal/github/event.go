package github

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Issue is the slice of the issues API payload triage needs.
type Issue struct {
	Number int     `json:"number"`
	Title  string  `json:"title"`
	Body   string  `json:"body"`
	Labels []Label `json:"labels"`
}

// Label is a GitHub issue label.
type Label struct {
	Name string `json:"name"`
}

// LabelNames returns the issue's label names in payload order.
func (i *Issue) LabelNames() []string {
	names := make([]string, len(i.Labels))
	for idx, l := range i.Labels {
		names[idx] = l.Name
	}
	return names
}

// Repository identifies the repository an event belongs to.
type Repository struct {
	FullName string `json:"full_name"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
	Name string `json:"name"`
}

// IssueEvent is an issues webhook/Actions event payload.
type IssueEvent struct {
	Action     string     `json:"action"`
	Issue      Issue      `json:"issue"`
	Repository Repository `json:"repository"`
}

// OwnerRepo returns the owner and repository names, preferring the
// explicit fields and falling back to full_name.
func (e *IssueEvent) OwnerRepo() (string, string, error) {
	owner, repo := e.Repository.Owner.Login, e.Repository.Name
	if owner == "" || repo == "" {
		parts := strings.SplitN(e.Repository.FullName, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("event has no usable repository reference")
		}
		owner, repo = parts[0], parts[1]
	}
	return owner, repo, nil
}

// ParseEvent decodes an issues event payload.
func ParseEvent(r io.Reader) (*IssueEvent, error) {
	var event IssueEvent
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return nil, fmt.Errorf("failed to decode event payload: %w", err)
	}
	if event.Issue.Number == 0 {
		return nil, fmt.Errorf("event payload has no issue")
	}
	return &event, nil
}

// ReadEventFile parses an event payload from a file (e.g. GITHUB_EVENT_PATH).
func ReadEventFile(path string) (*IssueEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event file: %w", err)
	}
	defer f.Close()
	return ParseEvent(f)
}
