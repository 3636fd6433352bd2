// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Check each stage against live services without sending mail",
	Long: `Diagnose probes the mail server, runs a small search over the last week
for the first two research keywords, applies the keyword filter, and, when a
language model is configured, rates two papers. No email is sent and nothing
is archived.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		c.Archive.Path = ""
		p, closeFn, err := buildPipeline(&c, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()

		result := p.Diagnose(cmd.Context())
		printResult(cmd.OutOrStdout(), result)
		return result.Err()
	},
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
}
