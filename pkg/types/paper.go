// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// MaxAuthors is the number of author display names kept per record.
const MaxAuthors = 5

// PaperRecord is one academic work surfaced by search. The Searcher creates
// it from a raw provider payload; the filter, summarize, and notify stages
// enrich the same value in place.
type PaperRecord struct {
	// ID is the provider identifier with any URL path stripped (e.g. "W4391234567").
	ID string `json:"id" yaml:"id"`

	// DOI is the DOI URL as returned by the provider, if any.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Title is the work title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in source order, truncated to MaxAuthors.
	Authors []string `json:"authors" yaml:"authors"`

	// Venue is the journal or conference name.
	Venue string `json:"venue" yaml:"venue"`

	// PublicationDate is the ISO calendar date (YYYY-MM-DD), or "" when unknown.
	PublicationDate string `json:"publication_date" yaml:"publication_date"`

	// Abstract is the abstract text, possibly empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Language is the provider's language code for the work.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// SourceURL links to the work on the provider site.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Concepts holds the top-level (level 0) concept labels.
	Concepts []string `json:"concepts" yaml:"concepts"`

	// Keywords holds the provider's keyword labels.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// RelevanceScore is the output of the last filter stage that ran.
	RelevanceScore int `json:"relevance_score" yaml:"relevance_score"`

	// RelevanceReason is the model's rationale, empty for keyword scoring.
	RelevanceReason string `json:"relevance_reason,omitempty" yaml:"relevance_reason,omitempty"`

	// SummaryZH is the Chinese summary.
	SummaryZH string `json:"summary_zh" yaml:"summary_zh"`

	// SummaryEN is the English summary.
	SummaryEN string `json:"summary_en" yaml:"summary_en"`
}

// AuthorLine returns the authors joined for display.
func (p *PaperRecord) AuthorLine() string {
	return strings.Join(p.Authors, ", ")
}

// SetSummaries records both summaries.
func (p *PaperRecord) SetSummaries(zh, en string) {
	p.SummaryZH = zh
	p.SummaryEN = en
}
