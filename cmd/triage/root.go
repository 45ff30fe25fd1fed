package main

import (
	"github.com/spf13/cobra"

	"github.com/opentriage/triage/internal/outfmt"
	"github.com/opentriage/triage/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "LLM-powered issue triage against repository issue-form templates",
	Long: `Triage maps free-form issue submissions onto a repository's structured
issue-form templates using a language model.

For each issue it:
  - Normalizes the repository's issue-form templates into field schemas
  - Asks the model to classify the issue and populate the matching template
  - Validates the reply and feeds violations back for bounded repair
  - Renders the validated fields into the template's layout
  - Writes the structured body and labels back to the issue`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.triage/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "triage home directory (default: ~/.triage)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		outfmt.SetFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(initCmd)
}
