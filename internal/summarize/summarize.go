// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize attaches a Chinese and an English summary to every
// record that reaches the digest.
package summarize

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paperseeker/internal/llm"
	"github.com/pdiddy/paperseeker/pkg/types"
)

// Request parameters for one summary call.
const (
	summaryTemperature = 0.5
	summaryMaxTokens   = 500
)

// Reply markers the summarize prompt asks the model to emit.
const (
	MarkerZH = "【中文摘要】"
	MarkerEN = "English Abstract:"
)

// Placeholder summaries written instead of model output.
const (
	NoAbstractZH  = "（原文摘要不可用）"
	NoAbstractEN  = "(Abstract not available)"
	FailedZH      = "（摘要生成失败）"
	LowRelevantZH = "（相关性较低，仅保留基本信息）"
	LowRelevantEN = "(Low relevance, basic info only)"
	NoEnglishEN   = "(No English summary available)"
)

// fallbackRunes is how much of the abstract the model-free variant keeps.
const fallbackRunes = 300

// Summarizer sets SummaryZH and SummaryEN on every record in place.
type Summarizer interface {
	Summarize(ctx context.Context, records []*types.PaperRecord, threshold int, w io.Writer)
}

// New returns the model-backed summarizer when completer is non-nil and the
// abstract-excerpt fallback otherwise.
func New(completer llm.Completer, prompt string) Summarizer {
	if completer == nil {
		return fallback{}
	}
	return &live{completer: completer, prompt: prompt}
}

type live struct {
	completer llm.Completer
	prompt    string
}

// Summarize calls the model once for each record scoring at least threshold
// that has an abstract. Records without an abstract or below the threshold
// get placeholders and no call is made for them.
func (l *live) Summarize(ctx context.Context, records []*types.PaperRecord, threshold int, w io.Writer) {
	calls := 0
	for _, r := range records {
		switch {
		case r.RelevanceScore < threshold:
			r.SetSummaries(LowRelevantZH, LowRelevantEN)
		case strings.TrimSpace(r.Abstract) == "":
			r.SetSummaries(NoAbstractZH, NoAbstractEN)
		default:
			calls++
			zh, en, err := l.summarize(ctx, r)
			if err != nil {
				fmt.Fprintf(w, "warning: summary for %s failed: %v\n", r.ID, err)
				r.SetSummaries(FailedZH, fmt.Sprintf("(Summary generation failed: %v)", err))
				continue
			}
			r.SetSummaries(zh, en)
		}
	}
	fmt.Fprintf(w, "summarized %d of %d papers (threshold %d)\n", calls, len(records), threshold)
}

func (l *live) summarize(ctx context.Context, r *types.PaperRecord) (string, string, error) {
	user := fmt.Sprintf("标题：%s\n作者：%s\n期刊：%s\n原文摘要：%s",
		r.Title, r.AuthorLine(), r.Venue, r.Abstract)

	reply, err := l.completer.Complete(ctx, llm.Request{
		System:      l.prompt,
		User:        user,
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return "", "", err
	}
	zh, en := ParseSummary(reply)
	return zh, en, nil
}

// ParseSummary splits a model reply on the two markers. The Chinese part runs
// from MarkerZH to MarkerEN, or to the end when MarkerEN is absent; it is ""
// when MarkerEN comes first. The English part is everything after MarkerEN.
// A missing marker yields "".
func ParseSummary(reply string) (zh, en string) {
	zhAt := strings.Index(reply, MarkerZH)
	enAt := strings.Index(reply, MarkerEN)

	switch {
	case zhAt >= 0 && enAt >= 0:
		if start := zhAt + len(MarkerZH); start <= enAt {
			zh = strings.TrimSpace(reply[start:enAt])
		}
	case zhAt >= 0:
		zh = strings.TrimSpace(reply[zhAt+len(MarkerZH):])
	}
	if enAt >= 0 {
		en = strings.TrimSpace(reply[enAt+len(MarkerEN):])
	}
	return zh, en
}

// fallback is used without a model credential.
type fallback struct{}

// Summarize gives every record an excerpt of its abstract, regardless of score.
func (fallback) Summarize(_ context.Context, records []*types.PaperRecord, _ int, w io.Writer) {
	for _, r := range records {
		r.SetSummaries(excerpt(r.Abstract), NoEnglishEN)
	}
	fmt.Fprintf(w, "summaries skipped: no API key, used abstract excerpts for %d papers\n", len(records))
}

func excerpt(abstract string) string {
	r := []rune(abstract)
	if len(r) > fallbackRunes {
		r = r[:fallbackRunes]
	}
	return string(r) + "..."
}
