// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/paperseeker/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search, filter, summarize, and email once",
	Long: `Run executes the pipeline once: probe the mail server, search OpenAlex for
each research keyword, filter by relevance, summarize, and send the digest.

The search window defaults to the last search.days_back days ending today.
--from-date and --to-date pin either end explicitly; --days-back 0 searches
today only.`,
	RunE: runOnce,
}

func init() {
	addWindowFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("from-date", "", "window start (YYYY-MM-DD)")
	cmd.Flags().String("to-date", "", "window end (YYYY-MM-DD, default today)")
	cmd.Flags().Int("days-back", 0, "search the last N days (default search.days_back)")
}

// windowOptions reads the window flags. DaysBack is set only when the flag
// was given, so an explicit 0 is kept.
func windowOptions(cmd *cobra.Command) pipeline.Options {
	from, _ := cmd.Flags().GetString("from-date")
	to, _ := cmd.Flags().GetString("to-date")

	opts := pipeline.Options{FromDate: from, ToDate: to}
	if cmd.Flags().Changed("days-back") {
		daysBack, _ := cmd.Flags().GetInt("days-back")
		opts.DaysBack = &daysBack
	}
	return opts
}

func runOnce(cmd *cobra.Command, args []string) error {
	p, closeFn, err := buildPipeline(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeFn()

	result := p.Run(cmd.Context(), windowOptions(cmd))
	printResult(cmd.OutOrStdout(), result)
	return result.Err()
}
