// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"

	"github.com/pdiddy/paperseeker/internal/search"
)

// Diagnostic sample sizes. They keep a diagnose pass to a handful of API
// calls.
const (
	diagnoseKeywords  = 2
	diagnoseDaysBack  = 7
	diagnoseMax       = 5
	diagnoseThreshold = 3
	diagnoseRatings   = 2
)

// Diagnose exercises each stage against the live services without sending
// mail: a probe, a small search, the keyword filter, and, when a model is
// configured, a couple of relevance ratings. Every step runs even if an
// earlier one fails.
func (p *Pipeline) Diagnose(ctx context.Context) *Result {
	r := &Result{Status: "diagnose"}
	w := p.out()

	if err := p.Notifier.Probe(ctx); err != nil {
		r.add(StepProbe, "", err)
	} else {
		r.add(StepProbe, "email server is reachable", nil)
	}

	keywords := p.Settings.Keywords
	if len(keywords) > diagnoseKeywords {
		keywords = keywords[:diagnoseKeywords]
	}
	window, err := search.ResolveWindow(p.now(), "", "", diagnoseDaysBack)
	if err != nil {
		r.add(StepSearch, "", err)
		return r
	}
	r.Window = window

	records, err := p.Searcher.Search(ctx, search.Request{
		Keywords:   keywords,
		Window:     window,
		MaxResults: diagnoseMax,
	}, w)
	if err != nil {
		r.add(StepSearch, "", err)
		return r
	}
	r.Found = len(records)
	r.add(StepSearch, fmt.Sprintf("found %d papers for %v (%s)", len(records), keywords, window), nil)
	if len(records) == 0 {
		return r
	}

	filtered := p.Keyword.Filter(records, diagnoseThreshold, w)
	search.FormatTable(records, w)
	r.Kept = len(filtered)
	r.add(StepFilter, fmt.Sprintf("keyword filter kept %d of %d at threshold %d", len(filtered), len(records), diagnoseThreshold), nil)

	if p.Relevance == nil || !p.Relevance.Live() {
		r.add("Relevance", "skipped: no API key", nil)
		return r
	}
	sample := records
	if len(sample) > diagnoseRatings {
		sample = sample[:diagnoseRatings]
	}
	for _, rec := range sample {
		rating := p.Relevance.Rate(ctx, rec.Title, rec.Abstract)
		fmt.Fprintf(w, "  score: %d, reason: %s\n", rating.Score, rating.Reason)
		r.add("Relevance", fmt.Sprintf("%s: score %d (%s)", rec.ID, rating.Score, rating.Reason), nil)
	}
	return r
}
