package cmd

import (
	"github.com/huangsam/actionstat/core"
	"github.com/huangsam/actionstat/internal"
	"github.com/spf13/cobra"
)

// fetchCmd ingests workflow run history into the run store.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch workflow run history into local storage.",
	Long: `Pull workflow runs, jobs and steps from the GitHub Actions API into
the local run store for later reporting.

Fetching is resumable: runs already stored with a final conclusion are
skipped, so an interrupted backfill picks up where it left off. Responses
are cached, so re-running a fetch does not repeat API calls.

Examples:
  # Backfill the default four weeks of CI history
  actionstat fetch --owner octocat --repo hello-world --workflow ci.yml

  # Backfill a longer window on one branch
  actionstat fetch --owner octocat --repo hello-world --workflow ci.yml --weeks 12 --branch main

  # Discard cache and stored runs, then fetch from scratch
  actionstat fetch --owner octocat --repo hello-world --workflow ci.yml --force-refresh`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFetch(rootCtx, cfg); err != nil {
			internal.FatalError("Cannot fetch workflow runs", err)
		}
	},
}
