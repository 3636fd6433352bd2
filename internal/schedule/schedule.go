// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule runs a job once a day at a wall-clock time in a
// configured time zone.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the work run on each trigger.
type Job func(ctx context.Context)

// Daily wraps a cron scheduler with a single daily entry.
type Daily struct {
	cron  *cron.Cron
	spec  string
	loc   *time.Location
	entry cron.EntryID
	log   *slog.Logger
}

// ParseTriggerTime parses "HH:MM" (24-hour) into hour and minute.
func ParseTriggerTime(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("trigger time %q: want HH:MM", s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("trigger time %q: hour must be 0-23", s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("trigger time %q: minute must be 0-59", s)
	}
	return hour, minute, nil
}

// CronSpec returns the five-field cron expression for a daily trigger time.
func CronSpec(triggerTime string) (string, error) {
	hour, minute, err := ParseTriggerTime(triggerTime)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// NewDaily builds a scheduler firing at triggerTime in timezone (IANA name,
// empty means UTC). Overlapping runs are skipped, so a slow run finishes
// before the next begins.
func NewDaily(triggerTime, timezone string, log *slog.Logger) (*Daily, error) {
	spec, err := CronSpec(triggerTime)
	if err != nil {
		return nil, err
	}
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}
	if log == nil {
		log = slog.Default()
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{log}), cron.Recover(cronLogger{log})),
	)
	return &Daily{cron: c, spec: spec, loc: loc, log: log}, nil
}

// Schedule registers job. The context passed to job is ctx.
func (d *Daily) Schedule(ctx context.Context, job Job) error {
	id, err := d.cron.AddFunc(d.spec, func() { job(ctx) })
	if err != nil {
		return fmt.Errorf("scheduling %q: %w", d.spec, err)
	}
	d.entry = id
	return nil
}

// Next returns the next trigger time after now, in the scheduler's zone.
func (d *Daily) Next(now time.Time) time.Time {
	sched, err := cron.ParseStandard(d.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(now.In(d.loc))
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to finish.
func (d *Daily) Run(ctx context.Context) {
	d.cron.Start()
	d.log.Info("scheduler started", "spec", d.spec, "timezone", d.loc.String(), "next", d.Next(time.Now()))
	<-ctx.Done()
	<-d.cron.Stop().Done()
	d.log.Info("scheduler stopped")
}

// cronLogger adapts slog to cron's logger interface.
type cronLogger struct{ log *slog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
