package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/opentriage/triage/internal/config"
	"github.com/opentriage/triage/internal/forms"
	"github.com/opentriage/triage/internal/github"
	"github.com/opentriage/triage/internal/outfmt"
)

var templatesRepo string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Normalize and print a repository's issue-form templates",
	Long: `Fetch a repository's issue-form templates and print their normalized
field schemas. Useful for checking what the model will be asked to fill
and for catching malformed templates (duplicate field keys, unknown item
types) before they abort a triage run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		owner, repo, err := splitRepo(templatesRepo)
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		gh := github.NewClient(github.Config{
			Token:   config.ResolveEnvVars(cm.Get().GitHub.Token),
			BaseURL: cm.Get().GitHub.BaseURL,
			Logger:  logger,
		})

		raw, err := gh.ListTemplates(ctx, owner, repo)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(raw))
		for key := range raw {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		schemas := make([]*forms.TemplateSchema, 0, len(raw))
		for _, key := range keys {
			schema, err := forms.Normalize(key, raw[key])
			if err != nil {
				return err
			}
			schemas = append(schemas, schema)
		}
		if len(schemas) == 0 {
			return fmt.Errorf("repository %s has no issue-form templates", templatesRepo)
		}

		return outfmt.Output(schemas)
	},
}

func init() {
	templatesCmd.Flags().StringVar(&templatesRepo, "repo", "", "repository as owner/name")
	_ = templatesCmd.MarkFlagRequired("repo")
}
