// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperseeker CLI. paperseeker
// searches OpenAlex for recent papers matching configured research
// interests, filters and summarizes them, and emails a daily digest.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperseeker/internal/config"
	"github.com/pdiddy/paperseeker/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip-config"

var (
	// v holds the config file contents.
	v = config.New()

	// cfg is the configuration loaded before any command that needs it runs.
	cfg *types.Config

	// cfgPath is the config file in use, "" when running on defaults.
	cfgPath string

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "paperseeker",
	Short: "Daily academic paper digests from OpenAlex",
	Long: `paperseeker searches OpenAlex for recently published papers matching your
research keywords, filters them by relevance (keyword scoring, optionally
refined by a language model), writes Chinese and English summaries, and
emails an HTML digest.

Research interests and prompts live in prompts.yaml; servers, credentials and
thresholds live in paperseeker.yaml. Run "paperseeker init" to create both.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperseeker.yaml or ~/.config/paperseeker/paperseeker.yaml)")
	rootCmd.PersistentFlags().String("prompts", "", "prompts file (default: prompts.yaml next to the config file, then ./prompts.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func loadConfig(cmd *cobra.Command) error {
	configFile, _ := cmd.Flags().GetString("config")
	promptsFile, _ := cmd.Flags().GetString("prompts")

	opts := config.Options{ConfigFile: configFile, PromptsFile: promptsFile}
	loaded, path, err := config.Load(v, opts)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg, cfgPath = loaded, path

	if path != "" {
		logger.Debug("using config file", "path", path)
	} else {
		logger.Debug("no config file found, using defaults")
	}
	return nil
}

// configOptions rebuilds the Options used at startup, for reloads.
func configOptions(cmd *cobra.Command) config.Options {
	promptsFile, _ := cmd.Flags().GetString("prompts")
	return config.Options{ConfigFile: cfgPath, PromptsFile: promptsFile}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
