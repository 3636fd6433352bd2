// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires search, filter, summarize, and notify into a single
// run. Each run is independent; nothing carries over between runs.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/paperseeker/internal/archive"
	"github.com/pdiddy/paperseeker/internal/filter"
	"github.com/pdiddy/paperseeker/internal/llm"
	"github.com/pdiddy/paperseeker/internal/notify"
	"github.com/pdiddy/paperseeker/internal/search"
	"github.com/pdiddy/paperseeker/internal/summarize"
	"github.com/pdiddy/paperseeker/pkg/types"
)

// Step names reported in Result.Steps.
const (
	StepProbe     = "Probe"
	StepSearch    = "Search"
	StepFilter    = "Filter"
	StepSummarize = "Summarize"
	StepNotify    = "Notify"
	StepArchive   = "Archive"
)

// Searcher finds candidate records.
type Searcher interface {
	Search(ctx context.Context, req search.Request, w io.Writer) ([]*types.PaperRecord, error)
}

// Notifier checks and uses the mail server.
type Notifier interface {
	Probe(ctx context.Context) error
	Send(ctx context.Context, records []*types.PaperRecord, date string) error
	SendEmpty(ctx context.Context, date string) error
}

// Archiver records finished runs.
type Archiver interface {
	Record(ctx context.Context, run archive.Run, papers []*types.PaperRecord) error
}

// Settings are the thresholds and interests a run applies.
type Settings struct {
	Keywords []string
	Exclude  []string

	MaxResults int
	DaysBack   int
	FromDate   string
	ToDate     string

	// KeywordThreshold is the keyword pre-filter used ahead of model rating.
	KeywordThreshold int

	// RelevanceThreshold is applied by whichever filter runs last.
	RelevanceThreshold int

	SummarizeThreshold int
}

// SettingsFromConfig extracts run settings from cfg.
func SettingsFromConfig(cfg *types.Config) Settings {
	return Settings{
		Keywords:           cfg.Prompts.ResearchKeywords,
		Exclude:            cfg.Prompts.ExcludeKeywords,
		MaxResults:         cfg.Search.MaxResults,
		DaysBack:           cfg.Search.DaysBack,
		FromDate:           cfg.Search.FromDate,
		ToDate:             cfg.Search.ToDate,
		KeywordThreshold:   cfg.Search.KeywordThreshold,
		RelevanceThreshold: cfg.Search.RelevanceThreshold,
		SummarizeThreshold: cfg.Prompts.SummarizeThreshold,
	}
}

// Pipeline runs one search-filter-summarize-notify pass per call to Run.
type Pipeline struct {
	Searcher   Searcher
	Keyword    *filter.KeywordFilter
	Relevance  filter.Relevance
	Summarizer summarize.Summarizer
	Notifier   Notifier

	// Archive is optional; nil disables run recording.
	Archive Archiver

	Settings Settings

	// Out receives progress lines.
	Out io.Writer

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// New wires the production components for cfg. completer may be nil, which
// selects the model-free filter and summarizer.
func New(cfg *types.Config, completer llm.Completer, out io.Writer) *Pipeline {
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{
		Searcher:   search.NewSearcher(search.NewOpenAlexBackend(cfg.OpenAlex), cfg.Search.KeywordDelay),
		Keyword:    filter.NewKeywordFilter(cfg.Prompts.ResearchKeywords, cfg.Prompts.ExcludeKeywords),
		Relevance:  filter.NewRelevance(completer, cfg.Prompts.FilterPrompt),
		Summarizer: summarize.New(completer, cfg.Prompts.SummarizePrompt),
		Notifier:   notify.NewMailer(cfg.Email, cfg.Prompts.Email, out),
		Settings:   SettingsFromConfig(cfg),
		Out:        out,
	}
}

// Options override the configured window for one run. Empty values defer to
// Settings; a nil DaysBack means "use the configured value", and a pointer
// to 0 asks for a today-only window.
type Options struct {
	FromDate string
	ToDate   string
	DaysBack *int
}

// StepResult holds the outcome of one pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result describes one run.
type Result struct {
	RunID  string
	Window search.Window
	Found  int
	Kept   int
	Status string
	Steps  []StepResult
}

// Err returns the first step error, or nil.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

func (r *Result) add(name, summary string, err error) StepResult {
	s := StepResult{Name: name, Summary: summary, Err: err}
	r.Steps = append(r.Steps, s)
	return s
}

// Run executes one pass. It stops after the probe if the mail server is
// unreachable and after search if nothing was found; in both cases no mail
// is sent. A run that filters everything out sends the empty notice.
func (p *Pipeline) Run(ctx context.Context, opts Options) *Result {
	now := p.now()
	r := &Result{RunID: uuid.NewString(), Status: archive.StatusFailed}
	w := p.out()

	fmt.Fprintln(w, "testing email server connection...")
	if err := p.Notifier.Probe(ctx); err != nil {
		fmt.Fprintf(w, "email connection failed: %v\naborting run\n", err)
		r.add(StepProbe, "", err)
		return r
	}
	r.add(StepProbe, "email server is reachable", nil)

	records, err := p.search(ctx, now, opts, r)
	if err != nil {
		r.add(StepSearch, "", err)
		p.record(ctx, now, r, nil)
		return r
	}
	r.Found = len(records)
	if len(records) == 0 {
		r.add(StepSearch, "no papers found", nil)
		r.Status = archive.StatusNoResult
		p.record(ctx, now, r, nil)
		return r
	}
	r.add(StepSearch, fmt.Sprintf("found %d papers (%s)", len(records), r.Window), nil)

	filtered := p.filter(ctx, records)
	r.Kept = len(filtered)
	r.add(StepFilter, fmt.Sprintf("%d of %d papers relevant", len(filtered), len(records)), nil)

	if len(filtered) == 0 {
		date := now.AddDate(0, 0, -1).Format(search.DateLayout)
		fmt.Fprintln(w, "no relevant papers, sending notification email...")
		err := p.Notifier.SendEmpty(ctx, date)
		r.add(StepNotify, "sent empty notice for "+date, err)
		if err == nil {
			r.Status = archive.StatusEmpty
		}
		p.record(ctx, now, r, nil)
		return r
	}

	p.Summarizer.Summarize(ctx, filtered, p.Settings.SummarizeThreshold, w)
	r.add(StepSummarize, fmt.Sprintf("summarized %d papers (threshold %d)", len(filtered), p.Settings.SummarizeThreshold), nil)

	date := now.Format(search.DateLayout)
	fmt.Fprintf(w, "sending email for %d papers...\n", len(filtered))
	if err := p.Notifier.Send(ctx, filtered, date); err != nil {
		r.add(StepNotify, "", err)
		p.record(ctx, now, r, filtered)
		return r
	}
	r.add(StepNotify, fmt.Sprintf("sent %d papers for %s", len(filtered), date), nil)
	r.Status = archive.StatusSent

	p.record(ctx, now, r, filtered)
	return r
}

func (p *Pipeline) search(ctx context.Context, now time.Time, opts Options, r *Result) ([]*types.PaperRecord, error) {
	from, to, daysBack := p.Settings.FromDate, p.Settings.ToDate, p.Settings.DaysBack
	if opts.FromDate != "" {
		from = opts.FromDate
	}
	if opts.ToDate != "" {
		to = opts.ToDate
	}
	if opts.DaysBack != nil {
		daysBack = *opts.DaysBack
	}

	window, err := search.ResolveWindow(now, from, to, daysBack)
	if err != nil {
		return nil, err
	}
	r.Window = window

	return p.Searcher.Search(ctx, search.Request{
		Keywords:   p.Settings.Keywords,
		Exclude:    p.Settings.Exclude,
		Window:     window,
		MaxResults: p.Settings.MaxResults,
	}, p.out())
}

// filter applies the keyword pre-filter and model rating when a model is
// available, or the keyword filter alone at the final threshold otherwise.
func (p *Pipeline) filter(ctx context.Context, records []*types.PaperRecord) []*types.PaperRecord {
	w := p.out()
	if p.Relevance != nil && p.Relevance.Live() {
		fmt.Fprintln(w, "using AI filter...")
		candidates := p.Keyword.Filter(records, p.Settings.KeywordThreshold, w)
		return p.Relevance.Filter(ctx, candidates, p.Settings.RelevanceThreshold, w)
	}
	fmt.Fprintln(w, "using keyword filter (no API key)...")
	return p.Keyword.Filter(records, p.Settings.RelevanceThreshold, w)
}

func (p *Pipeline) record(ctx context.Context, started time.Time, r *Result, papers []*types.PaperRecord) {
	if p.Archive == nil {
		return
	}
	run := archive.Run{
		ID:         r.RunID,
		StartedAt:  started,
		FinishedAt: p.now(),
		Found:      r.Found,
		Kept:       r.Kept,
		Status:     r.Status,
	}
	if !r.Window.From.IsZero() {
		run.WindowFrom = r.Window.From.Format(search.DateLayout)
		run.WindowTo = r.Window.To.Format(search.DateLayout)
	}
	if err := r.Err(); err != nil {
		run.Error = err.Error()
	}
	// Record even when the run was cancelled.
	err := p.Archive.Record(context.WithoutCancel(ctx), run, papers)
	summary := "recorded run " + r.RunID
	if err != nil {
		summary = ""
	}
	r.add(StepArchive, summary, err)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) out() io.Writer {
	if p.Out == nil {
		return io.Discard
	}
	return p.Out
}
