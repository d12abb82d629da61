// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Help styles
var (
	helpDescStyle = lipgloss.NewStyle().
			Foreground(warnColor).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(warnColor).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(okColor).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// StyledHelpPrinter returns a kong help printer rendering with lipgloss.
// It describes the selected command, or the whole application when no
// command is selected.
func StyledHelpPrinter(kong.HelpOptions) kong.HelpPrinter {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		node := ctx.Model.Node
		if sel := ctx.Selected(); sel != nil {
			node = sel
		}

		sb.WriteString(TitleStyle.Render(Title))
		sb.WriteString("\n")
		if help := node.Help; help != "" {
			sb.WriteString(helpDescStyle.Render(help))
			sb.WriteString("\n")
		}

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(usage(ctx, node))
		sb.WriteString("\n")

		writeSection(&sb, "Commands:", helpArgStyle, commands(node))
		writeSection(&sb, "Arguments:", helpArgStyle, arguments(node))
		writeSection(&sb, "Flags:", helpFlagStyle, flags(node))

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type entry struct {
	name       string
	help       string
	defaultVal string
}

func writeSection(sb *strings.Builder, title string, style lipgloss.Style, entries []entry) {
	if len(entries) == 0 {
		return
	}

	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
	for _, e := range entries {
		sb.WriteString("  ")
		sb.WriteString(style.Render(e.name))
		if e.help != "" {
			sb.WriteString("  ")
			sb.WriteString(e.help)
		}
		if e.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + e.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}

func usage(ctx *kong.Context, node *kong.Node) string {
	if node == ctx.Model.Node {
		return ctx.Model.Name + " <command> [flags]"
	}
	return ctx.Model.Name + " " + node.Summary()
}

func commands(node *kong.Node) []entry {
	var out []entry
	for _, c := range node.Children {
		if c.Hidden || c.Type != kong.CommandNode {
			continue
		}
		out = append(out, entry{name: c.Summary(), help: c.Help})
	}
	return out
}

func arguments(node *kong.Node) []entry {
	var out []entry
	for _, arg := range node.Positional {
		out = append(out, entry{name: arg.Summary(), help: arg.Help})
	}
	return out
}

func flags(node *kong.Node) []entry {
	out := []entry{{name: "-h, --help", help: "Show context-sensitive help."}}

	for _, group := range node.AllFlags(true) {
		for _, f := range group {
			if f.Name == "help" {
				continue
			}

			name := "--" + f.Name
			if f.Short != 0 {
				name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
			}
			if !f.IsBool() {
				name += "=" + strings.ToUpper(f.FormatPlaceHolder())
			}
			out = append(out, entry{name: name, help: f.Help, defaultVal: f.Default})
		}
	}
	return out
}
