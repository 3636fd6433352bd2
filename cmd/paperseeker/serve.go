// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paperseeker/internal/config"
	"github.com/pdiddy/paperseeker/internal/pipeline"
	"github.com/pdiddy/paperseeker/internal/schedule"
	"github.com/pdiddy/paperseeker/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline every day at the configured time",
	Long: `Serve stays in the foreground and runs the pipeline once a day at
scheduler.trigger_time in scheduler.timezone. Unless --no-immediate is set,
one run starts right away.

Edits to the config file are picked up before the next run. A changed
trigger_time takes effect after a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("no-immediate", false, "wait for the first scheduled time instead of running now")

	rootCmd.AddCommand(serveCmd)
}

// liveConfig holds the configuration used by the next scheduled run.
type liveConfig struct {
	mu  sync.RWMutex
	cfg *types.Config
}

func (l *liveConfig) get() *types.Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

func (l *liveConfig) set(c *types.Config) {
	l.mu.Lock()
	l.cfg = c
	l.mu.Unlock()
}

func runServe(cmd *cobra.Command, args []string) error {
	noImmediate, _ := cmd.Flags().GetBool("no-immediate")

	if !cfg.Scheduler.Enabled {
		return errors.New("scheduler.enabled is false; use \"paperseeker run\" for a single pass")
	}

	daily, err := schedule.NewDaily(cfg.Scheduler.TriggerTime, cfg.Scheduler.Timezone, logger)
	if err != nil {
		return err
	}

	live := &liveConfig{cfg: cfg}
	watchConfig(cmd, live)

	job := func(ctx context.Context) {
		c := live.get()
		p, closeFn, err := buildPipeline(c, cmd.OutOrStdout())
		if err != nil {
			logger.Error("building pipeline", "error", err)
			return
		}
		defer closeFn()

		result := p.Run(ctx, pipeline.Options{})
		printResult(cmd.OutOrStdout(), result)
		if err := result.Err(); err != nil {
			logger.Error("run failed", "run", result.RunID, "error", err)
			return
		}
		logger.Info("run finished", "run", result.RunID, "status", result.Status, "kept", result.Kept)
	}

	ctx := cmd.Context()
	if err := daily.Schedule(ctx, job); err != nil {
		return err
	}
	if !noImmediate {
		logger.Info("running immediately")
		job(ctx)
	}

	daily.Run(ctx)
	return nil
}

// watchConfig reloads the config file on change. A reload that fails to
// load or validate keeps the previous configuration.
func watchConfig(cmd *cobra.Command, live *liveConfig) {
	if cfgPath == "" {
		return
	}
	opts := configOptions(cmd)

	v.SetConfigFile(cfgPath)
	v.OnConfigChange(func(e fsnotify.Event) {
		next, _, err := config.Load(config.New(), opts)
		if err != nil {
			logger.Warn("config reload failed, keeping previous settings", "file", e.Name, "error", err)
			return
		}
		prev := live.get()
		if next.Scheduler.TriggerTime != prev.Scheduler.TriggerTime || next.Scheduler.Timezone != prev.Scheduler.Timezone {
			logger.Warn("schedule changes take effect after restart",
				"trigger_time", next.Scheduler.TriggerTime, "timezone", next.Scheduler.Timezone)
		}
		live.set(next)
		logger.Info("config reloaded", "file", e.Name)
	})
	v.WatchConfig()
}
