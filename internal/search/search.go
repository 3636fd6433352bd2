// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the paper-search API once per research keyword and
// returns a single deduplicated list of records, newest first.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/paperseeker/internal/httputil"
	"github.com/pdiddy/paperseeker/pkg/types"
)

// DateLayout is the calendar-date format used by the API and the CLI.
const DateLayout = "2006-01-02"

// defaultMaxResults applies when a request leaves MaxResults unset.
const defaultMaxResults = 20

// Backend queries a single academic API for one keyword. OpenAlexBackend is
// the production implementation; tests supply a mock.
type Backend interface {
	Name() string
	Search(ctx context.Context, keyword string, window Window, maxResults int) ([]*types.PaperRecord, error)
}

// Window is an inclusive publication-date range.
type Window struct {
	From time.Time
	To   time.Time
}

// String renders the window as "FROM to TO".
func (w Window) String() string {
	return w.From.Format(DateLayout) + " to " + w.To.Format(DateLayout)
}

// ResolveWindow turns the configured dates and the "last N days" shorthand
// into a concrete window. The end is the explicit to date or today; the start
// is the explicit from date or the end minus daysBack days. An explicit date
// is never replaced by the shorthand.
func ResolveWindow(now time.Time, from, to string, daysBack int) (Window, error) {
	if daysBack < 0 {
		return Window{}, fmt.Errorf("days back must not be negative, got %d", daysBack)
	}

	end := truncateDay(now)
	if to != "" {
		t, err := time.ParseInLocation(DateLayout, to, now.Location())
		if err != nil {
			return Window{}, fmt.Errorf("parsing to date %q: %w", to, err)
		}
		end = t
	}

	start := end.AddDate(0, 0, -daysBack)
	if from != "" {
		t, err := time.ParseInLocation(DateLayout, from, now.Location())
		if err != nil {
			return Window{}, fmt.Errorf("parsing from date %q: %w", from, err)
		}
		start = t
	}

	if start.After(end) {
		return Window{}, fmt.Errorf("from date %s is after to date %s", start.Format(DateLayout), end.Format(DateLayout))
	}
	return Window{From: start, To: end}, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Request holds the parameters of one search run.
type Request struct {
	// Keywords are queried in order, one API call each.
	Keywords []string

	// Exclude is carried for the filter stage; search ignores it.
	Exclude []string

	Window Window

	// MaxResults caps each keyword's result count (default 20).
	MaxResults int
}

// ErrNoKeywords is returned when a request has nothing to search for.
var ErrNoKeywords = errors.New("no research keywords configured")

// Searcher runs a Request against a Backend, pacing successive keywords.
type Searcher struct {
	backend Backend
	pacer   *httputil.Pacer
}

// NewSearcher returns a Searcher that waits delay between keyword queries.
func NewSearcher(backend Backend, delay time.Duration) *Searcher {
	return &Searcher{backend: backend, pacer: httputil.NewPacer(delay)}
}

// Search queries every keyword sequentially, keeps the first occurrence of
// each record ID, and returns the union sorted by publication date, newest
// first. A failing keyword is reported to w and contributes no results.
func (s *Searcher) Search(ctx context.Context, req Request, w io.Writer) ([]*types.PaperRecord, error) {
	keywords := nonEmpty(req.Keywords)
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	fmt.Fprintf(w, "searching %s from %s\n", s.backend.Name(), req.Window)

	seen := make(map[string]bool)
	var all []*types.PaperRecord

	for _, kw := range keywords {
		if err := s.pacer.Wait(ctx); err != nil {
			return sortByDate(all), err
		}

		records, err := s.backend.Search(ctx, kw, req.Window, maxResults)
		if err != nil {
			fmt.Fprintf(w, "warning: keyword %q failed: %v\n", kw, err)
			continue
		}

		added := 0
		for _, r := range records {
			if r.ID == "" || seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			all = append(all, r)
			added++
		}
		fmt.Fprintf(w, "  keyword %q: %d found (%d new)\n", kw, len(records), added)
	}

	all = sortByDate(all)
	fmt.Fprintf(w, "%d unique papers\n", len(all))
	return all, nil
}

// sortByDate orders records by publication date descending. ISO dates sort
// lexically; records without a date go last. Ties keep aggregation order.
func sortByDate(records []*types.PaperRecord) []*types.PaperRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublicationDate > records[j].PublicationDate
	})
	return records
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []*types.PaperRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-10s  %-5s  %s\n",
		"#", "Title", "Authors", "Date", "Score", "ID")
	fmt.Fprintln(w, strings.Repeat("-", 116))

	for i, r := range records {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-10s  %-5d  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), r.PublicationDate, r.RelevanceScore, r.ID)
	}
	fmt.Fprintf(w, "\n%d results\n", len(records))
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
