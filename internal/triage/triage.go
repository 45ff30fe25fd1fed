// Package triage wires the collaborators around the classification core:
// template source in, repair loop through, rendered publication out. One
// issue is fully resolved before anything is published; runs share no
// state.
package triage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opentriage/triage/internal/calllog"
	"github.com/opentriage/triage/internal/classify"
	"github.com/opentriage/triage/internal/forms"
	"github.com/opentriage/triage/internal/github"
	"github.com/opentriage/triage/internal/providers"
	"github.com/opentriage/triage/internal/render"
)

// Service runs triage for single issues.
type Service struct {
	GitHub   *github.Client
	Client   providers.LLMClient
	Recorder *calllog.Recorder // optional
	Logger   *slog.Logger

	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Outcome is the result of one successful triage run.
type Outcome struct {
	Classification *classify.Validated `json:"classification" yaml:"classification"`
	Body           string              `json:"body" yaml:"body"`
	Labels         []string            `json:"labels" yaml:"labels"`
}

// LoadTemplates fetches and normalizes the repository's issue-form
// templates. A template that cannot be normalized aborts the run before
// any model call.
func (s *Service) LoadTemplates(ctx context.Context, owner, repo string) (map[string]*forms.TemplateSchema, error) {
	raw, err := s.GitHub.ListTemplates(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("repository %s/%s has no issue-form templates", owner, repo)
	}

	schemas := make(map[string]*forms.TemplateSchema, len(raw))
	for key, doc := range raw {
		schema, err := forms.Normalize(key, doc)
		if err != nil {
			return nil, err
		}
		schemas[key] = schema
	}
	return schemas, nil
}

// TriageIssue resolves one issue to a rendered publication, or fails
// explicitly. Retry handling lives entirely inside the classify driver;
// the only failures surfacing here are malformed templates and exhausted
// attempts.
func (s *Service) TriageIssue(ctx context.Context, owner, repo string, issue *github.Issue) (*Outcome, error) {
	logger := s.logger().With("repo", owner+"/"+repo, "issue", issue.Number)

	templates, err := s.LoadTemplates(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	req := &classify.Request{
		Title:          issue.Title,
		Description:    issue.Body,
		ExistingLabels: issue.LabelNames(),
		Templates:      templates,
	}

	driver := classify.NewDriver(classify.DriverConfig{
		Client:      s.Client,
		Model:       s.Model,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		Timeout:     s.Timeout,
		Logger:      logger,
	})
	if s.Recorder != nil {
		s.Recorder.Repo = owner + "/" + repo
		s.Recorder.IssueNumber = issue.Number
		driver.OnAttempt = s.Recorder.Attempt
	}

	validated, err := driver.Classify(ctx, req)
	if err != nil {
		return nil, err
	}

	s.warnUnknownLabels(ctx, owner, repo, validated.Labels(), logger)

	schema := templates[validated.TemplateKey]
	body := render.Render(schema, validated.Fields, render.ExtractImages(issue.Body))

	return &Outcome{
		Classification: validated,
		Body:           body,
		Labels:         validated.Labels(),
	}, nil
}

// Publish writes an outcome back to the issue.
func (s *Service) Publish(ctx context.Context, owner, repo string, issue *github.Issue, out *Outcome) error {
	return s.GitHub.PublishTriage(ctx, owner, repo, issue.Number, github.Publication{
		Title:  out.Classification.Title,
		Body:   out.Body,
		Labels: out.Labels,
	})
}

// warnUnknownLabels flags suggested labels the repository does not define.
// Advisory only: GitHub creates missing labels on application, but a repo
// with a curated label set usually wants to know.
func (s *Service) warnUnknownLabels(ctx context.Context, owner, repo string, suggested []string, logger *slog.Logger) {
	existing, err := s.GitHub.ListLabels(ctx, owner, repo)
	if err != nil {
		logger.Warn("failed to list repository labels", "error", err)
		return
	}

	known := make(map[string]bool, len(existing))
	for _, l := range existing {
		known[l] = true
	}
	for _, l := range suggested {
		if !known[l] {
			logger.Warn("suggested label is not defined in repository", "label", l)
		}
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
