// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperseeker/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write starter paperseeker.yaml and prompts.yaml",
	Long: `Init writes the default configuration and prompts files into dir (default
the current directory). Existing files are left alone unless --force is set.

Credentials in paperseeker.yaml are ${VAR} references; set them in the
environment, a .env file, or the .secrets directory.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing files")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{config.ConfigFile, config.DefaultConfigYAML},
		{config.PromptsFile, config.DefaultPromptsYAML},
	}

	w := cmd.OutOrStdout()
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil && !force {
			fmt.Fprintf(w, "%s exists, skipping (use --force to overwrite)\n", path)
			continue
		}
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(w, "wrote %s\n", path)
	}
	return nil
}
