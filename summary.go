package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fedharvest/types"
)

// Color palette
const (
	colorSuccess = "#04B575"
	colorError   = "#FF0000"
	colorInfo    = "#626262"
	colorBorder  = "#874BFD"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorSuccess))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorInfo))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(1, 2)
)

// renderSummary builds the end-of-run report: per-category counts, the
// labels and causes of any failures, and the resume hint.
func renderSummary(results []*types.HarvestResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Harvest Summary"))
	b.WriteString("\n\n")

	published, failed := 0, 0
	for _, r := range results {
		published += len(r.Published)
		failed += len(r.Failed)
		b.WriteString(fmt.Sprintf("%-12s %d published, %d failed\n", r.Category, len(r.Published), len(r.Failed)))
	}
	b.WriteString(fmt.Sprintf("%-12s %d published, %d failed", "Total", published, failed))

	if failed > 0 {
		b.WriteString("\n\n")
		b.WriteString(failStyle.Render("Failed items:"))
		for _, r := range results {
			for _, f := range r.Failed {
				b.WriteString(failStyle.Render(fmt.Sprintf("\n  %s: %s", f.Label, f.Reason)))
			}
		}
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("Re-running is safe: published datasets are skipped automatically."))
	}

	return boxStyle.Render(b.String())
}
