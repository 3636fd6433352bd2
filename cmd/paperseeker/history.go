// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperseeker/internal/archive"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the archive",
	Long: `History reads the run archive (archive.path) and lists the most recent
runs. --format json or yaml exports the runs together with the papers each
digest contained.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to show")
	historyCmd.Flags().String("format", "table", "output format: table, json, yaml")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	if cfg.Archive.Path == "" {
		return errors.New("archive.path is not set; no history is kept")
	}
	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	switch format {
	case "json":
		return store.ExportJSON(ctx, w, limit)
	case "yaml":
		return store.ExportYAML(ctx, w, limit)
	case "table":
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}

	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	t := newTable("Started", "Window", "Found", "Kept", "Status", "Error")
	for _, r := range runs {
		status := okStyle.Render(r.Status)
		if r.Status == archive.StatusFailed {
			status = failStyle.Render(r.Status)
		}
		t.Row(
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.WindowFrom+" to "+r.WindowTo,
			strconv.Itoa(r.Found),
			strconv.Itoa(r.Kept),
			status,
			r.Error,
		)
	}
	fmt.Fprintln(w, t)
	return nil
}
