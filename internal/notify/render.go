// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	ttemplate "text/template"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/pdiddy/paperseeker/pkg/types"
)

// DefaultSubject is used when the prompts file leaves the subject empty.
const DefaultSubject = "PaperSeeker: {date} Papers ({count})"

// TestSubject is the subject of the configuration check message.
const TestSubject = "PaperSeeker Test Email"

// Badge colours by score tier.
const (
	colorHigh   = "#4CAF50"
	colorMedium = "#2196F3"
	colorLow    = "#FF9800"
)

// BadgeColor returns the badge colour for a relevance score.
func BadgeColor(score int) string {
	switch {
	case score >= 4:
		return colorHigh
	case score >= 3:
		return colorMedium
	default:
		return colorLow
	}
}

// FormatSubject fills the {date} and {count} placeholders.
func FormatSubject(tmpl, date string, count int) string {
	if tmpl == "" {
		tmpl = DefaultSubject
	}
	return strings.NewReplacer("{date}", date, "{count}", strconv.Itoa(count)).Replace(tmpl)
}

// markdown renders greeting and footer text. Hard wraps keep single
// newlines as line breaks.
var markdown = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps()))

func renderMarkdown(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

type digestPaper struct {
	Number    int
	Score     int
	Color     template.CSS
	Title     string
	URL       string
	Authors   string
	Venue     string
	SummaryZH string
	SummaryEN string
}

type digestData struct {
	Date     string
	Greeting template.HTML
	Footer   template.HTML
	Papers   []digestPaper
}

// RenderDigest builds the HTML digest for records.
func RenderDigest(records []*types.PaperRecord, date string, tmpl types.EmailTemplates) (string, error) {
	greeting, err := renderMarkdown(tmpl.Greeting)
	if err != nil {
		return "", err
	}
	footer, err := renderMarkdown(tmpl.Footer)
	if err != nil {
		return "", err
	}

	data := digestData{Date: date, Greeting: greeting, Footer: footer}
	for i, r := range records {
		data.Papers = append(data.Papers, digestPaper{
			Number:    i + 1,
			Score:     r.RelevanceScore,
			Color:     template.CSS(BadgeColor(r.RelevanceScore)),
			Title:     orDefault(r.Title, "Untitled"),
			URL:       r.SourceURL,
			Authors:   orDefault(r.AuthorLine(), "Unknown Authors"),
			Venue:     orDefault(r.Venue, "Unknown Journal"),
			SummaryZH: r.SummaryZH,
			SummaryEN: r.SummaryEN,
		})
	}

	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return buf.String(), nil
}

// RenderDigestText builds the plain-text alternative of the digest. Greeting
// and footer are kept as their markdown source.
func RenderDigestText(records []*types.PaperRecord, date string, tmpl types.EmailTemplates) (string, error) {
	data := struct {
		Date     string
		Greeting string
		Footer   string
		Papers   []digestPaper
	}{Date: date, Greeting: strings.TrimSpace(tmpl.Greeting), Footer: strings.TrimSpace(tmpl.Footer)}
	for i, r := range records {
		data.Papers = append(data.Papers, digestPaper{
			Number:    i + 1,
			Score:     r.RelevanceScore,
			Title:     orDefault(r.Title, "Untitled"),
			URL:       r.SourceURL,
			Authors:   orDefault(r.AuthorLine(), "Unknown Authors"),
			Venue:     orDefault(r.Venue, "Unknown Journal"),
			SummaryZH: r.SummaryZH,
			SummaryEN: r.SummaryEN,
		})
	}

	var buf bytes.Buffer
	if err := digestTextTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering digest text: %w", err)
	}
	return buf.String(), nil
}

// RenderEmpty builds the notice sent when nothing passed the filters.
func RenderEmpty(date string) (string, error) {
	var buf bytes.Buffer
	if err := emptyTmpl.Execute(&buf, struct{ Date string }{date}); err != nil {
		return "", fmt.Errorf("rendering empty notice: %w", err)
	}
	return buf.String(), nil
}

// RenderEmptyText is the plain-text alternative of RenderEmpty.
func RenderEmptyText(date string) string {
	return "No Relevant Papers Found\n\nDate: " + date + "\n\n" +
		"No papers matched your research interests today.\n" +
		"Consider adjusting your keywords in prompts.yaml for better results.\n"
}

// testBody is the fixed configuration check message.
const testBody = `<html><body>
<h2>PaperSeeker Test</h2>
<p>If you receive this email, your PaperSeeker configuration is working correctly.</p>
</body></html>
`

const testText = `PaperSeeker Test

If you receive this email, your PaperSeeker configuration is working correctly.
`

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

var digestTmpl = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
.header { text-align: center; padding: 20px 0; border-bottom: 2px solid #4CAF50; margin-bottom: 20px; }
.greeting { font-size: 16px; margin-bottom: 20px; }
.paper-card { background: #f9f9f9; border-radius: 8px; padding: 20px; margin-bottom: 20px; }
.paper-header { display: flex; align-items: flex-start; gap: 10px; margin-bottom: 10px; }
.paper-number { background: #4CAF50; color: white; width: 28px; height: 28px; border-radius: 50%; display: flex; align-items: center; justify-content: center; font-weight: bold; flex-shrink: 0; }
.score-badge { color: white; padding: 4px 10px; border-radius: 12px; font-size: 12px; font-weight: bold; flex-shrink: 0; }
.paper-title { margin: 0; font-size: 16px; }
.paper-title a { color: #2196F3; text-decoration: none; }
.paper-meta { margin: 5px 0; font-size: 13px; color: #666; }
.summary-section { margin-top: 15px; padding-top: 15px; border-top: 1px solid #ddd; }
.summary-zh { font-size: 14px; color: #333; margin-bottom: 8px; }
.summary-en { font-size: 12px; color: #888; font-style: italic; }
.footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; font-size: 12px; color: #888; text-align: center; }
</style>
</head>
<body>
<div class="header">
<h1>PaperSeeker</h1>
<p>{{.Date}}</p>
</div>
<div class="greeting">{{.Greeting}}</div>
<div class="papers">
{{- range .Papers}}
<div class="paper-card">
<div class="paper-header">
<span class="paper-number">{{.Number}}</span>
<span class="score-badge" style="background: {{.Color}}">{{.Score}}</span>
<h3 class="paper-title"><a href="{{.URL}}">{{.Title}}</a></h3>
</div>
<p class="paper-meta"><strong>{{.Authors}}</strong></p>
<p class="paper-meta">{{.Venue}}</p>
<div class="summary-section">
<p class="summary-zh">{{.SummaryZH}}</p>
<p class="summary-en">{{.SummaryEN}}</p>
</div>
</div>
{{- end}}
</div>
<div class="footer">{{.Footer}}</div>
</body>
</html>
`))

var emptyTmpl = template.Must(template.New("empty").Parse(`<html><body>
<h2>No Relevant Papers Found</h2>
<p>Date: {{.Date}}</p>
<p>No papers matched your research interests today.</p>
<p>Consider adjusting your keywords in prompts.yaml for better results.</p>
</body></html>
`))

var digestTextTmpl = ttemplate.Must(ttemplate.New("digest-text").Parse(`PaperSeeker {{.Date}}
{{if .Greeting}}
{{.Greeting}}
{{end}}
{{- range .Papers}}
{{.Number}}. [{{.Score}}] {{.Title}}
   {{.Authors}}
   {{.Venue}}
{{- if .URL}}
   {{.URL}}
{{- end}}
{{- if .SummaryZH}}

   {{.SummaryZH}}
{{- end}}
{{- if .SummaryEN}}

   {{.SummaryEN}}
{{- end}}
{{end}}
{{- if .Footer}}
--
{{.Footer}}
{{end}}`))
