// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/paperseeker/internal/llm"
	"github.com/pdiddy/paperseeker/pkg/types"
)

// Relevance request parameters.
const (
	maxAbstractRunes     = 2000
	relevanceTemperature = 0.3
	relevanceMaxTokens   = 200
)

// DefaultScore is assigned when the model reply carries no parsable score or
// the call fails.
const DefaultScore = 3

// ReasonNoKey is the rationale reported by the passthrough rater.
const ReasonNoKey = "No API key"

var (
	scorePattern  = regexp.MustCompile(`评分[:：]?\s*(\d+)`)
	reasonPattern = regexp.MustCompile(`理由[:：]?\s*(.+)`)
)

// Rating is a model's verdict on one record.
type Rating struct {
	Score  int
	Reason string
}

// Relevance rates records with a language model and keeps those at or above
// a threshold.
type Relevance interface {
	// Rate scores a single title and abstract. It never returns an error;
	// failures resolve to DefaultScore with the error text as the reason.
	Rate(ctx context.Context, title, abstract string) Rating

	// Filter rates every record, overwriting RelevanceScore and
	// RelevanceReason, and returns the records scoring at least threshold.
	Filter(ctx context.Context, records []*types.PaperRecord, threshold int, w io.Writer) []*types.PaperRecord

	// Live reports whether ratings come from a model.
	Live() bool
}

// NewRelevance returns the model-backed rater when completer is non-nil and
// the passthrough rater otherwise. prompt is the system instruction.
func NewRelevance(completer llm.Completer, prompt string) Relevance {
	if completer == nil {
		return passthrough{}
	}
	return &liveRelevance{completer: completer, prompt: prompt}
}

type liveRelevance struct {
	completer llm.Completer
	prompt    string
}

func (l *liveRelevance) Live() bool { return true }

func (l *liveRelevance) Rate(ctx context.Context, title, abstract string) Rating {
	reply, err := l.completer.Complete(ctx, llm.Request{
		System:      l.prompt,
		User:        fmt.Sprintf("标题：%s\n\n摘要：%s", title, truncateRunes(abstract, maxAbstractRunes)),
		Temperature: relevanceTemperature,
		MaxTokens:   relevanceMaxTokens,
	})
	if err != nil {
		return Rating{Score: DefaultScore, Reason: "Error: " + err.Error()}
	}
	return ParseRating(reply)
}

func (l *liveRelevance) Filter(ctx context.Context, records []*types.PaperRecord, threshold int, w io.Writer) []*types.PaperRecord {
	var kept []*types.PaperRecord
	for i, r := range records {
		rating := l.Rate(ctx, r.Title, r.Abstract)
		r.RelevanceScore = rating.Score
		r.RelevanceReason = rating.Reason
		fmt.Fprintf(w, "  [%d/%d] score %d: %s\n", i+1, len(records), rating.Score, truncateRunes(r.Title, 60))
		if rating.Score >= threshold {
			kept = append(kept, r)
		}
	}
	fmt.Fprintf(w, "relevance filter: %d of %d papers scored >= %d\n", len(kept), len(records), threshold)
	return kept
}

// passthrough stands in when no model credential is configured.
type passthrough struct{}

func (passthrough) Live() bool { return false }

func (passthrough) Rate(context.Context, string, string) Rating {
	return Rating{Score: DefaultScore, Reason: ReasonNoKey}
}

func (passthrough) Filter(_ context.Context, records []*types.PaperRecord, _ int, w io.Writer) []*types.PaperRecord {
	fmt.Fprintln(w, "relevance filter skipped: no API key")
	return records
}

// ParseRating extracts the score and reason from a model reply. A missing
// score resolves to DefaultScore; a missing reason resolves to the whole
// reply.
func ParseRating(reply string) Rating {
	rating := Rating{Score: DefaultScore, Reason: strings.TrimSpace(reply)}

	if m := scorePattern.FindStringSubmatch(reply); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			rating.Score = n
		}
	}
	if m := reasonPattern.FindStringSubmatch(reply); m != nil {
		rating.Reason = strings.TrimSpace(m[1])
	}
	return rating
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
