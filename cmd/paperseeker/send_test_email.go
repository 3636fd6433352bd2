// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperseeker/internal/notify"
)

var sendTestEmailCmd = &cobra.Command{
	Use:   "send-test-email",
	Short: "Send a short test message to the configured recipient",
	Long: `Send-test-email checks that the mail server is reachable and then delivers a
fixed test message, confirming the SMTP settings before the first digest.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := notify.NewMailer(cfg.Email, cfg.Prompts.Email, cmd.OutOrStdout())
		if err := m.Probe(cmd.Context()); err != nil {
			return err
		}
		if err := m.SendTest(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("test email sent to "+cfg.Email.RecipientEmail))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendTestEmailCmd)
}
