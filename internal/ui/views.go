// SPDX-License-Identifier: EPL-2.0

package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ik5/declick/internal/cli"
)

const boxWidth = 60

func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderFileQueue(m))
	b.WriteString("\n")
	b.WriteString(renderOverallProgress(m))

	return b.String()
}

func renderHeader(m Model) string {
	title := cli.TitleStyle.UnsetMarginBottom().Render(cli.Title)

	mode := "Repairing"
	if m.TestMode {
		mode = "Checking"
	}
	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("%s %d file(s)", mode, len(m.Files)))

	return title + "\n" + subtitle
}

func renderFileQueue(m Model) string {
	var b strings.Builder
	for _, file := range m.Files {
		b.WriteString(renderFileEntry(file))
		b.WriteString("\n")
	}
	return b.String()
}

func renderFileEntry(file FileProgress) string {
	name := filepath.Base(file.Path)

	switch file.Status {
	case StatusComplete, StatusError:
		return " " + cli.FileLine(file.Report)

	case StatusProcessing:
		icon := cli.WarnStyle.Render("⚙")
		return fmt.Sprintf(" %s %s\n%s", icon, name, renderFileDetails(file))

	default:
		icon := cli.KeyStyle.Render("○")
		return fmt.Sprintf(" %s %s", icon, name)
	}
}

func renderFileDetails(file FileProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#2E86C1")).
		Padding(0, 1).
		Width(boxWidth)

	var content strings.Builder
	content.WriteString(renderProgressBar(file.Fraction(), 40))
	content.WriteString("\n")

	elapsed := file.Elapsed.Seconds()
	var remaining float64
	if f := file.Fraction(); f > 0 {
		remaining = elapsed/f - elapsed
	}
	content.WriteString(fmt.Sprintf("%d / %d frames | Elapsed: %.1fs | Remaining: ~%.1fs",
		file.Done, file.Total, elapsed, remaining))

	return box.Render(content.String())
}

func renderProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %d%%", bar, int(progress*100))
}

func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#888888")).
		Padding(0, 1).
		Width(boxWidth)

	content := fmt.Sprintf("%d/%d complete", m.CompletedFiles+m.FailedFiles, len(m.Files))
	if m.FailedFiles > 0 {
		content += cli.ErrorStyle.Render(fmt.Sprintf(" (%d failed)", m.FailedFiles))
	}
	if m.Stopping {
		content += "\n" + cli.WarnStyle.Render("Stopping after the current file...")
	} else {
		content += "\n" + cli.KeyStyle.Render("q: stop after the current file")
	}
	return box.Render(content)
}

func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := cli.OKStyle.Bold(true).Render("Processing complete")
	if m.FailedFiles > 0 {
		header = cli.ErrorStyle.Render("Processing finished with errors")
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	cli.PrintReport(&b, m.Report, m.TestMode)
	return b.String()
}
