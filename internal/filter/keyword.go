// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter scores search results against the configured research
// interests and discards records that fall below a threshold. Two scorers
// exist: a keyword counter that never leaves the process and a model-backed
// relevance rater that replaces the keyword score when a credential is set.
package filter

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paperseeker/pkg/types"
)

// Score weights for the keyword heuristic.
const (
	matchWeight   = 1
	excludeWeight = 2
)

// KeywordFilter scores records by counting which research keywords appear in
// the record text and penalizing exclusion terms.
type KeywordFilter struct {
	keywords []string
	exclude  []string
}

// NewKeywordFilter lowercases and trims both lists once. Empty entries are dropped.
func NewKeywordFilter(keywords, exclude []string) *KeywordFilter {
	return &KeywordFilter{
		keywords: normalizeTerms(keywords),
		exclude:  normalizeTerms(exclude),
	}
}

// Score returns +1 for every research keyword present in the record text and
// -2 for every exclusion keyword present, floored at zero. Presence is a
// case-insensitive substring test, so a keyword that occurs several times
// still counts once.
func (f *KeywordFilter) Score(r *types.PaperRecord) int {
	text := searchText(r)

	score := 0
	for _, kw := range f.keywords {
		if strings.Contains(text, kw) {
			score += matchWeight
		}
	}
	for _, kw := range f.exclude {
		if strings.Contains(text, kw) {
			score -= excludeWeight
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// Filter sets RelevanceScore on every record and returns those scoring at
// least threshold, preserving input order. Running it twice with the same
// threshold returns the same records with the same scores.
func (f *KeywordFilter) Filter(records []*types.PaperRecord, threshold int, w io.Writer) []*types.PaperRecord {
	var kept []*types.PaperRecord
	for _, r := range records {
		r.RelevanceScore = f.Score(r)
		if r.RelevanceScore >= threshold {
			kept = append(kept, r)
		}
	}
	fmt.Fprintf(w, "keyword filter: %d of %d papers scored >= %d\n", len(kept), len(records), threshold)
	return kept
}

// searchText is the lowercase blob the keyword test runs against.
func searchText(r *types.PaperRecord) string {
	parts := []string{r.Title, r.Abstract, r.Venue}
	parts = append(parts, r.Concepts...)
	parts = append(parts, r.Keywords...)
	return strings.ToLower(strings.Join(parts, " "))
}

func normalizeTerms(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
