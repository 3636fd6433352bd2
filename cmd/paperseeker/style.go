// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pdiddy/paperseeker/internal/pipeline"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// printResult writes the per-step report for a run or diagnose pass.
func printResult(w io.Writer, r *pipeline.Result) {
	fmt.Fprintln(w)
	heading := "Run " + r.Status
	if r.RunID != "" {
		heading += " " + mutedStyle.Render(r.RunID)
	}
	fmt.Fprintln(w, titleStyle.Render(heading))
	if !r.Window.From.IsZero() {
		fmt.Fprintf(w, "  window: %s  found: %d  kept: %d\n", r.Window, r.Found, r.Kept)
	}

	for _, s := range r.Steps {
		mark, text := okStyle.Render("✓"), s.Summary
		if s.Err != nil {
			mark, text = failStyle.Render("✗"), s.Err.Error()
		}
		fmt.Fprintf(w, "  %s %-10s %s\n", mark, s.Name, text)
	}
}

// newTable returns a bordered table with the shared header and cell styles.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
