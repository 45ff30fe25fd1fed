package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opentriage/triage/internal/calllog"
	"github.com/opentriage/triage/internal/classify"
	"github.com/opentriage/triage/internal/config"
	"github.com/opentriage/triage/internal/github"
	"github.com/opentriage/triage/internal/home"
	"github.com/opentriage/triage/internal/outfmt"
	"github.com/opentriage/triage/internal/providers"
	"github.com/opentriage/triage/internal/triage"
)

var (
	runEventPath string
	runRepo      string
	runIssue     int
	runDryRun    bool
	runComment   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Triage one issue and write the structured result back",
	Long: `Run triage for a single issue.

The issue comes either from an Actions event payload (--event, defaulting
to $GITHUB_EVENT_PATH) or from an explicit --repo owner/name and --issue
number, in which case the issue is fetched from the API.

Exits nonzero when classification attempts are exhausted; there is no
fallback classification.

Examples:
  triage run                                  # inside a GitHub Action
  triage run --repo acme/widgets --issue 42   # explicit issue
  triage run --repo acme/widgets --issue 42 --dry-run -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		svc, err := buildService(logger)
		if err != nil {
			return err
		}

		owner, repo, issue, err := resolveIssue(ctx, svc.GitHub)
		if err != nil {
			return err
		}

		out, err := svc.TriageIssue(ctx, owner, repo, issue)
		if err != nil {
			var exhausted *classify.ExhaustedError
			if errors.As(err, &exhausted) && runComment && !runDryRun {
				diag := fmt.Sprintf(
					"Automated triage could not produce a valid classification after %d attempts.\n\nLast validation failures:\n%s",
					exhausted.Attempts, exhausted.Violations.Join())
				if cerr := svc.GitHub.CreateComment(ctx, owner, repo, issue.Number, diag); cerr != nil {
					logger.Warn("failed to post failure comment", "error", cerr)
				}
			}
			return err
		}

		if runDryRun {
			return outfmt.Output(out)
		}
		if err := svc.Publish(ctx, owner, repo, issue, out); err != nil {
			return err
		}
		return outfmt.Output(out.Classification)
	},
}

func init() {
	runCmd.Flags().StringVar(&runEventPath, "event", "", "issues event payload file (default: $GITHUB_EVENT_PATH)")
	runCmd.Flags().StringVar(&runRepo, "repo", "", "repository as owner/name (with --issue)")
	runCmd.Flags().IntVar(&runIssue, "issue", 0, "issue number to fetch (with --repo)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the outcome without publishing")
	runCmd.Flags().BoolVar(&runComment, "comment-on-failure", true, "post a diagnostic comment when attempts are exhausted")
}

// buildService assembles the triage service from config. Provider
// selection fails here, at startup, if zero or multiple providers are
// enabled.
func buildService(logger *slog.Logger) (*triage.Service, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}

	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg := cm.Get()

	name, providerCfg, err := cfg.SelectProvider()
	if err != nil {
		return nil, err
	}
	client, err := providers.New(providerCfg)
	if err != nil {
		return nil, err
	}
	logger.Info("selected LLM provider", "name", name, "model", providerCfg.Model)

	gh := github.NewClient(github.Config{
		Token:   config.ResolveEnvVars(cfg.GitHub.Token),
		BaseURL: cfg.GitHub.BaseURL,
		Logger:  logger,
	})

	var recorder *calllog.Recorder
	if cfg.Triage.RecordCalls {
		if err := h.EnsureExists(); err != nil {
			return nil, err
		}
		recorder = calllog.NewRecorder(h.CallsPath(), logger)
	}

	return &triage.Service{
		GitHub:      gh,
		Client:      client,
		Recorder:    recorder,
		Logger:      logger,
		Model:       providerCfg.Model,
		Temperature: cfg.Triage.Temperature,
		MaxTokens:   cfg.Triage.MaxTokens,
		Timeout:     providerCfg.Timeout,
	}, nil
}

// resolveIssue picks the issue from flags or the event payload.
func resolveIssue(ctx context.Context, gh *github.Client) (string, string, *github.Issue, error) {
	if runRepo != "" || runIssue != 0 {
		owner, repo, err := splitRepo(runRepo)
		if err != nil {
			return "", "", nil, err
		}
		if runIssue <= 0 {
			return "", "", nil, fmt.Errorf("--issue is required with --repo")
		}
		issue, err := gh.GetIssue(ctx, owner, repo, runIssue)
		if err != nil {
			return "", "", nil, err
		}
		return owner, repo, issue, nil
	}

	eventPath := runEventPath
	if eventPath == "" {
		eventPath = os.Getenv("GITHUB_EVENT_PATH")
	}
	if eventPath == "" {
		return "", "", nil, fmt.Errorf("no issue specified: pass --repo/--issue or --event (or set GITHUB_EVENT_PATH)")
	}

	event, err := github.ReadEventFile(eventPath)
	if err != nil {
		return "", "", nil, err
	}
	owner, repo, err := event.OwnerRepo()
	if err != nil {
		return "", "", nil, err
	}
	return owner, repo, &event.Issue, nil
}

func splitRepo(s string) (string, string, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("--repo must be owner/name, got %q", s)
	}
	return parts[0], parts[1], nil
}
