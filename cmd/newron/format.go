package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/newronai/newron-go/pkg/tracking"
)

// Centralized style definitions for CLI output.
var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // yellow
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
)

// renderTable lays out rows under a header, padding cells by display width so
// wide runes line up.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && runewidth.StringWidth(cell) > widths[i] {
				widths[i] = runewidth.StringWidth(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(headerStyle.Render(pad(h, widths[i])))
		if i < len(header)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")

	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}

	return s + strings.Repeat(" ", gap)
}

func styleStatus(status tracking.RunStatus) string {
	s := string(status)
	switch status {
	case tracking.StatusRunning:
		return runningStyle.Render(s)
	case tracking.StatusFinished:
		return doneStyle.Render(s)
	case tracking.StatusFailed, tracking.StatusKilled:
		return failedStyle.Render(s)
	default:
		return s
	}
}

func formatMillis(millis int64) string {
	if millis == 0 {
		return dimStyle.Render("-")
	}

	return time.UnixMilli(millis).Format("2006-01-02 15:04:05")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}

// runMarkdown renders a run's metadata, params, latest metrics and tags as a
// markdown document for display.
func runMarkdown(run *tracking.Run) string {
	var b strings.Builder

	name := run.Info.RunName
	if name == "" {
		name = run.Info.RunID
	}
	fmt.Fprintf(&b, "# %s\n\n", name)
	fmt.Fprintf(&b, "- **Run ID**: `%s`\n", run.Info.RunID)
	fmt.Fprintf(&b, "- **Experiment**: %s\n", run.Info.ExperimentID)
	fmt.Fprintf(&b, "- **Status**: %s\n", run.Info.Status)
	fmt.Fprintf(&b, "- **Started**: %s\n", formatMillis(run.Info.StartTime))
	if run.Info.EndTime > 0 {
		fmt.Fprintf(&b, "- **Ended**: %s\n", formatMillis(run.Info.EndTime))
	}
	fmt.Fprintf(&b, "- **Artifacts**: `%s`\n", run.Info.ArtifactURI)

	if len(run.Data.Params) > 0 {
		b.WriteString("\n## Params\n\n")
		for _, p := range run.Data.Params {
			fmt.Fprintf(&b, "| %s | %s |\n", p.Key, p.Value)
		}
	}
	if len(run.Data.Metrics) > 0 {
		b.WriteString("\n## Metrics\n\n")
		for _, m := range run.Data.Metrics {
			fmt.Fprintf(&b, "| %s | %g | step %d |\n", m.Key, m.Value, m.Step)
		}
	}
	if len(run.Data.Tags) > 0 {
		b.WriteString("\n## Tags\n\n")
		for _, t := range run.Data.Tags {
			fmt.Fprintf(&b, "| %s | %s |\n", t.Key, t.Value)
		}
	}

	return b.String()
}
