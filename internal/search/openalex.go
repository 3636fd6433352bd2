// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/paperseeker/internal/httputil"
	"github.com/pdiddy/paperseeker/pkg/types"
)

// DefaultOpenAlexURL is the public OpenAlex API base.
const DefaultOpenAlexURL = "https://api.openalex.org"

// maxPerPage is the largest page OpenAlex serves.
const maxPerPage = 100

// errGraphQLRejected marks a GraphQL reply that carried no works but did
// carry protocol-level errors. It triggers the REST fallback.
var errGraphQLRejected = errors.New("graphql query rejected")

// OpenAlexBackend queries OpenAlex. It tries the structured GraphQL endpoint
// first and falls back to the REST /works listing for the same keyword when
// GraphQL fails or reports errors.
type OpenAlexBackend struct {
	Client *http.Client

	// BaseURL is the API root; /graphql and /works are appended.
	BaseURL string

	// Email is sent as the mailto parameter for polite pool access.
	Email string

	UserAgent string
}

// NewOpenAlexBackend builds a backend from configuration.
func NewOpenAlexBackend(cfg types.OpenAlexConfig) *OpenAlexBackend {
	base := cfg.APIURL
	if base == "" {
		base = DefaultOpenAlexURL
	}
	return &OpenAlexBackend{
		Client:    httputil.NewClient(cfg.HTTPConfig),
		BaseURL:   strings.TrimRight(base, "/"),
		Email:     cfg.Email,
		UserAgent: httputil.UserAgent(cfg.HTTPConfig),
	}
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// Search returns normalized records for one keyword within the window.
func (b *OpenAlexBackend) Search(ctx context.Context, keyword string, window Window, maxResults int) ([]*types.PaperRecord, error) {
	perPage := maxResults
	if perPage <= 0 {
		perPage = defaultMaxResults
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	works, gqlErr := b.searchGraphQL(ctx, keyword, window, perPage)
	if gqlErr != nil {
		var restErr error
		works, restErr = b.searchREST(ctx, keyword, window, perPage)
		if restErr != nil {
			return nil, fmt.Errorf("graphql: %v; rest fallback: %w", gqlErr, restErr)
		}
	}

	records := make([]*types.PaperRecord, 0, len(works))
	for _, work := range works {
		records = append(records, normalizeWork(work))
	}
	return records, nil
}

// dateFilter renders the OpenAlex publication-date filter for the window.
func dateFilter(window Window) string {
	return "from_publication_date:" + window.From.Format(DateLayout) +
		",to_publication_date:" + window.To.Format(DateLayout)
}

// buildGraphQLQuery renders the works query for one keyword.
func buildGraphQLQuery(keyword string, window Window, perPage int) string {
	return fmt.Sprintf(`{
  works(
    search: %s,
    filter: %s,
    sort: "publication_date:desc",
    per_page: %d
  ) {
    results {
      id
      doi
      title
      publication_date
      journal { id display_name }
      authorships { author { id display_name } }
      abstract
      language
      keywords { id display_name }
      concepts { id display_name level }
    }
  }
}`, strconv.Quote(keyword), strconv.Quote(dateFilter(window)), perPage)
}

func (b *OpenAlexBackend) searchGraphQL(ctx context.Context, keyword string, window Window, perPage int) ([]openAlexWork, error) {
	body, err := json.Marshal(map[string]string{
		"query": buildGraphQLQuery(keyword, window, perPage),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", b.UserAgent)

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex graphql request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("OpenAlex graphql: %w", err)
	}

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing graphql response: %w", err)
	}

	if len(gr.Data.Works.Results) == 0 && len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("%w: %s", errGraphQLRejected, strings.Join(msgs, "; "))
	}
	return gr.Data.Works.Results, nil
}

func (b *OpenAlexBackend) searchREST(ctx context.Context, keyword string, window Window, perPage int) ([]openAlexWork, error) {
	params := url.Values{
		"search":   {keyword},
		"filter":   {dateFilter(window)},
		"sort":     {"publication_date:desc"},
		"per-page": {strconv.Itoa(perPage)},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"/works?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", b.UserAgent)

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("OpenAlex API: %w", err)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return oar.Results, nil
}

// normalizeWork flattens a GraphQL or REST work into a PaperRecord. Missing
// fields become empty strings.
func normalizeWork(work openAlexWork) *types.PaperRecord {
	r := &types.PaperRecord{
		ID:              stripIDPath(work.ID),
		DOI:             work.DOI,
		Title:           work.Title,
		PublicationDate: work.PublicationDate,
		Language:        work.Language,
		SourceURL:       work.ID,
		Venue:           work.venue(),
		Abstract:        work.Abstract,
	}
	if r.Abstract == "" {
		r.Abstract = reconstructAbstract(work.AbstractInvertedIndex)
	}

	for _, authorship := range work.Authorships {
		if len(r.Authors) == types.MaxAuthors {
			break
		}
		if authorship.Author.DisplayName != "" {
			r.Authors = append(r.Authors, authorship.Author.DisplayName)
		}
	}

	for _, c := range work.Concepts {
		if c.Level == 0 && c.DisplayName != "" {
			r.Concepts = append(r.Concepts, c.DisplayName)
		}
	}
	for _, k := range work.Keywords {
		if k.DisplayName != "" {
			r.Keywords = append(r.Keywords, k.DisplayName)
		}
	}
	return r
}

// stripIDPath reduces "https://openalex.org/W123" to "W123".
func stripIDPath(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures. The GraphQL and REST payloads share the
// work shape except for where the venue lives and how the abstract is sent.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type graphQLResponse struct {
	Data struct {
		Works struct {
			Results []openAlexWork `json:"results"`
		} `json:"works"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	DOI                   string               `json:"doi"`
	Title                 string               `json:"title"`
	PublicationDate       string               `json:"publication_date"`
	Language              string               `json:"language"`
	Abstract              string               `json:"abstract"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	Journal               *openAlexSource      `json:"journal"`
	HostVenue             *openAlexSource      `json:"host_venue"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	Concepts              []openAlexConcept    `json:"concepts"`
	Keywords              []openAlexLabel      `json:"keywords"`
}

// venue resolves the host name from whichever nested object the payload used.
func (w openAlexWork) venue() string {
	switch {
	case w.Journal != nil && w.Journal.DisplayName != "":
		return w.Journal.DisplayName
	case w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil:
		return w.PrimaryLocation.Source.DisplayName
	case w.HostVenue != nil:
		return w.HostVenue.DisplayName
	}
	return ""
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexSource struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source *openAlexSource `json:"source"`
}

type openAlexConcept struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Level       int    `json:"level"`
}

type openAlexLabel struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
