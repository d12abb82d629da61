// SPDX-License-Identifier: EPL-2.0

// Package cli holds the styled terminal output of the declick command.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#2E86C1")
	warnColor    = lipgloss.Color("#FFA500")
	errorColor   = lipgloss.Color("#A40000")
	okColor      = lipgloss.Color("#00AA00")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	WarnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	OKStyle = lipgloss.NewStyle().
		Foreground(okColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// Title is the program banner.
const Title = "declick"

// PrintVersion prints version information.
func PrintVersion(w io.Writer, version string) {
	fmt.Fprintln(w, TitleStyle.Render(Title))
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
}

// PrintError prints an error message.
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), message)
}
