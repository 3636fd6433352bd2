package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperseeker/internal/archive"
	"github.com/pdiddy/paperseeker/internal/filter"
	"github.com/pdiddy/paperseeker/internal/llm"
	"github.com/pdiddy/paperseeker/internal/notify"
	"github.com/pdiddy/paperseeker/internal/search"
	"github.com/pdiddy/paperseeker/internal/summarize"
	"github.com/pdiddy/paperseeker/pkg/types"
)

// --- fakes ---

type fakeSearcher struct {
	records  []*types.PaperRecord
	err      error
	requests []search.Request
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request, _ io.Writer) ([]*types.PaperRecord, error) {
	f.requests = append(f.requests, req)
	return f.records, f.err
}

type fakeNotifier struct {
	probeErr  error
	sendErr   error
	sent      [][]*types.PaperRecord
	sentDates []string
	empty     []string
}

func (f *fakeNotifier) Probe(context.Context) error { return f.probeErr }

func (f *fakeNotifier) Send(_ context.Context, records []*types.PaperRecord, date string) error {
	f.sent = append(f.sent, records)
	f.sentDates = append(f.sentDates, date)
	return f.sendErr
}

func (f *fakeNotifier) SendEmpty(_ context.Context, date string) error {
	f.empty = append(f.empty, date)
	return f.sendErr
}

type fakeArchive struct {
	runs   []archive.Run
	papers [][]*types.PaperRecord
}

func (f *fakeArchive) Record(_ context.Context, run archive.Run, papers []*types.PaperRecord) error {
	f.runs = append(f.runs, run)
	f.papers = append(f.papers, papers)
	return nil
}

type scriptedCompleter struct {
	byTitle map[string]string
	calls   int
}

func (s *scriptedCompleter) Model() string { return "scripted" }

func (s *scriptedCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.calls++
	if req.System != "rate" {
		return "【中文摘要】摘要 English Abstract: summary", nil
	}
	for title, reply := range s.byTitle {
		if strings.Contains(req.User, title) {
			return reply, nil
		}
	}
	return "评分：1\n理由：unrelated", nil
}

// --- helpers ---

var fixedNow = time.Date(2026, 3, 8, 21, 0, 0, 0, time.UTC)

func papers() []*types.PaperRecord {
	return []*types.PaperRecord{
		{ID: "W1", Title: "Solid-state battery electrolytes", Abstract: "lithium metal anode", PublicationDate: "2026-03-08"},
		{ID: "W2", Title: "Battery recycling", Abstract: "", PublicationDate: "2026-03-07"},
		{ID: "W3", Title: "Crop yields", Abstract: "agriculture", PublicationDate: "2026-03-07"},
	}
}

func testPipeline(s *fakeSearcher, n *fakeNotifier, completer llm.Completer) (*Pipeline, *fakeArchive, *bytes.Buffer) {
	var out bytes.Buffer
	arch := &fakeArchive{}
	keywords := []string{"battery", "lithium", "solid-state"}
	p := &Pipeline{
		Searcher:   s,
		Keyword:    filter.NewKeywordFilter(keywords, []string{"review"}),
		Relevance:  filter.NewRelevance(completer, "rate"),
		Summarizer: summarize.New(completer, "summarize"),
		Notifier:   n,
		Archive:    arch,
		Settings: Settings{
			Keywords:           keywords,
			MaxResults:         20,
			DaysBack:           1,
			KeywordThreshold:   1,
			RelevanceThreshold: 2,
			SummarizeThreshold: 4,
		},
		Out: &out,
		Now: func() time.Time { return fixedNow },
	}
	return p, arch, &out
}

func stepNames(r *Result) []string {
	var names []string
	for _, s := range r.Steps {
		names = append(names, s.Name)
	}
	return names
}

// --- tests ---

func TestRun_ProbeFailureAborts(t *testing.T) {
	s := &fakeSearcher{records: papers()}
	n := &fakeNotifier{probeErr: errors.New("dial tcp: connection refused")}
	p, arch, out := testPipeline(s, n, nil)

	r := p.Run(context.Background(), Options{})

	assert.Equal(t, []string{StepProbe}, stepNames(r))
	require.Error(t, r.Err())
	assert.Empty(t, s.requests, "no search after a failed probe")
	assert.Empty(t, n.sent)
	assert.Empty(t, n.empty)
	assert.Empty(t, arch.runs)
	assert.Contains(t, out.String(), "aborting run")
}

func TestRun_NoSearchResultsSendsNothing(t *testing.T) {
	s := &fakeSearcher{}
	n := &fakeNotifier{}
	p, arch, _ := testPipeline(s, n, nil)

	r := p.Run(context.Background(), Options{})

	require.NoError(t, r.Err())
	assert.Equal(t, archive.StatusNoResult, r.Status)
	assert.Empty(t, n.sent)
	assert.Empty(t, n.empty)
	require.Len(t, arch.runs, 1)
	assert.Equal(t, archive.StatusNoResult, arch.runs[0].Status)
}

func TestRun_EverythingFilteredSendsEmptyNoticeDatedYesterday(t *testing.T) {
	s := &fakeSearcher{records: []*types.PaperRecord{{ID: "W3", Title: "Crop yields"}}}
	n := &fakeNotifier{}
	p, arch, _ := testPipeline(s, n, nil)

	r := p.Run(context.Background(), Options{})

	require.NoError(t, r.Err())
	assert.Equal(t, []string{"2026-03-07"}, n.empty)
	assert.Empty(t, n.sent)
	assert.Equal(t, archive.StatusEmpty, r.Status)
	assert.Equal(t, 0, r.Kept)
	require.Len(t, arch.runs, 1)
}

func TestRun_KeywordOnlyPath(t *testing.T) {
	s := &fakeSearcher{records: papers()}
	n := &fakeNotifier{}
	p, arch, out := testPipeline(s, n, nil)

	r := p.Run(context.Background(), Options{})

	require.NoError(t, r.Err())
	assert.Equal(t, []string{StepProbe, StepSearch, StepFilter, StepSummarize, StepNotify, StepArchive}, stepNames(r))
	assert.Equal(t, archive.StatusSent, r.Status)
	assert.Equal(t, 3, r.Found)
	assert.NotEmpty(t, r.RunID)

	require.Len(t, n.sent, 1)
	assert.Equal(t, []string{"2026-03-08"}, n.sentDates, "digest is dated today")
	sent := n.sent[0]
	require.Len(t, sent, 1, "only W1 reaches the relevance threshold of 2")
	assert.Equal(t, "W1", sent[0].ID)
	assert.Equal(t, 3, sent[0].RelevanceScore)
	assert.Equal(t, summarize.NoEnglishEN, sent[0].SummaryEN, "fallback summaries without a key")

	require.Len(t, arch.runs, 1)
	assert.Equal(t, r.RunID, arch.runs[0].ID)
	assert.Equal(t, "2026-03-07", arch.runs[0].WindowFrom)
	assert.Equal(t, "2026-03-08", arch.runs[0].WindowTo)
	assert.Equal(t, sent, arch.papers[0])
	assert.Contains(t, out.String(), "using keyword filter")
}

func TestRun_ModelPath(t *testing.T) {
	s := &fakeSearcher{records: papers()}
	n := &fakeNotifier{}
	c := &scriptedCompleter{byTitle: map[string]string{
		"Solid-state": "评分：5\n理由：core topic",
		"recycling":   "评分：3\n理由：adjacent",
	}}
	p, _, out := testPipeline(s, n, c)

	r := p.Run(context.Background(), Options{})
	require.NoError(t, r.Err())

	require.Len(t, n.sent, 1)
	sent := n.sent[0]
	require.Len(t, sent, 2, "W3 fails the keyword pre-filter and is never rated")
	assert.Equal(t, 5, sent[0].RelevanceScore)
	assert.Equal(t, "core topic", sent[0].RelevanceReason)
	assert.Equal(t, "摘要", sent[0].SummaryZH)
	assert.Equal(t, summarize.LowRelevantZH, sent[1].SummaryZH, "score 3 is below the summarize threshold")

	// Two ratings plus one summary.
	assert.Equal(t, 3, c.calls)
	assert.Contains(t, out.String(), "using AI filter")
}

func TestRun_OptionsOverrideWindow(t *testing.T) {
	s := &fakeSearcher{}
	p, _, _ := testPipeline(s, &fakeNotifier{}, nil)

	p.Run(context.Background(), Options{FromDate: "2026-02-01", ToDate: "2026-02-10"})
	week, today := 7, 0
	p.Run(context.Background(), Options{DaysBack: &week})
	p.Run(context.Background(), Options{DaysBack: &today})
	p.Run(context.Background(), Options{})

	require.Len(t, s.requests, 4)
	assert.Equal(t, "2026-02-01 to 2026-02-10", s.requests[0].Window.String())
	assert.Equal(t, "2026-03-01 to 2026-03-08", s.requests[1].Window.String())
	assert.Equal(t, "2026-03-08 to 2026-03-08", s.requests[2].Window.String(), "zero days back is today only")
	assert.Equal(t, "2026-03-07 to 2026-03-08", s.requests[3].Window.String(), "unset uses the configured value")
	assert.Equal(t, 20, s.requests[0].MaxResults)
}

func TestRun_SearchError(t *testing.T) {
	s := &fakeSearcher{err: search.ErrNoKeywords}
	n := &fakeNotifier{}
	p, arch, _ := testPipeline(s, n, nil)

	r := p.Run(context.Background(), Options{})
	assert.ErrorIs(t, r.Err(), search.ErrNoKeywords)
	assert.Equal(t, archive.StatusFailed, r.Status)
	assert.Empty(t, n.sent)
	require.Len(t, arch.runs, 1)
	assert.Contains(t, arch.runs[0].Error, "no research keywords")
}

func TestRun_InvalidWindow(t *testing.T) {
	s := &fakeSearcher{}
	p, _, _ := testPipeline(s, &fakeNotifier{}, nil)

	r := p.Run(context.Background(), Options{FromDate: "2026-04-01", ToDate: "2026-03-01"})
	assert.Error(t, r.Err())
	assert.Empty(t, s.requests)
}

func TestRun_DeliveryNotConfigured(t *testing.T) {
	s := &fakeSearcher{records: papers()}
	n := &fakeNotifier{sendErr: notify.ErrNotConfigured}
	p, arch, _ := testPipeline(s, n, nil)

	r := p.Run(context.Background(), Options{})
	assert.ErrorIs(t, r.Err(), notify.ErrNotConfigured)
	assert.Equal(t, archive.StatusFailed, r.Status)
	require.Len(t, arch.runs, 1)
	assert.Equal(t, archive.StatusFailed, arch.runs[0].Status)
}

func TestRun_NoArchive(t *testing.T) {
	s := &fakeSearcher{records: papers()}
	p, _, _ := testPipeline(s, &fakeNotifier{}, nil)
	p.Archive = nil

	r := p.Run(context.Background(), Options{})
	require.NoError(t, r.Err())
	assert.NotContains(t, stepNames(r), StepArchive)
}

func TestDiagnose(t *testing.T) {
	s := &fakeSearcher{records: papers()}
	n := &fakeNotifier{probeErr: errors.New("unreachable")}
	c := &scriptedCompleter{byTitle: map[string]string{"Solid-state": "评分：4\n理由：ok"}}
	p, arch, out := testPipeline(s, n, c)
	p.Settings.Keywords = []string{"a", "b", "c"}

	r := p.Diagnose(context.Background())

	require.Len(t, s.requests, 1)
	assert.Equal(t, []string{"a", "b"}, s.requests[0].Keywords)
	assert.Equal(t, 5, s.requests[0].MaxResults)
	assert.Equal(t, "2026-03-01 to 2026-03-08", s.requests[0].Window.String())

	assert.Error(t, r.Err(), "probe failure is reported")
	assert.Contains(t, stepNames(r), StepSearch, "but later steps still run")
	assert.Equal(t, 2, c.calls, "two sample ratings")
	assert.Empty(t, n.sent)
	assert.Empty(t, arch.runs)

	assert.Contains(t, out.String(), "Solid-state battery electrolytes", "sampled papers are listed")
	assert.Contains(t, out.String(), "3 results")
}
