// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ik5/declick"
)

// FileLine formats the outcome of one file on a single line.
func FileLine(fr declick.FileReport) string {
	name := filepath.Base(fr.Path)
	if fr.Err != nil {
		return fmt.Sprintf("%s %s: %v", ErrorStyle.Render("✗"), name, fr.Err)
	}

	parts := []string{fmt.Sprintf("%d clicks", fr.Engine.Corrections)}
	if fr.Engine.Reverted > 0 {
		parts = append(parts, fmt.Sprintf("%d reverted", fr.Engine.Reverted))
	}
	if fr.LeadTrimmed > 0 || fr.TrailTrimmed > 0 {
		parts = append(parts, fmt.Sprintf("trimmed %d/%d frames", fr.LeadTrimmed, fr.TrailTrimmed))
	}
	if fr.Index != "" {
		parts = append(parts, "index "+filepath.Base(fr.Index))
	}

	line := fmt.Sprintf("%s %s: %s", OKStyle.Render("✓"), name, strings.Join(parts, ", "))
	if fr.Linked {
		line += " " + WarnStyle.Render("(possibly linked to the previous track)")
	}
	if fr.MissingPadding > 0 {
		line += " " + WarnStyle.Render(fmt.Sprintf("(%d frames short of a CD sector)", fr.MissingPadding))
	}
	return line
}

// PrintReport writes one line per file followed by the run totals. The
// cache bypass count is only shown when non-zero.
func PrintReport(w io.Writer, rep declick.Report, testMode bool) {
	for _, fr := range rep.Files {
		fmt.Fprintln(w, FileLine(fr))
	}

	fmt.Fprintf(w, "%s %s", KeyStyle.Render("Clicks:"), ValueStyle.Render(fmt.Sprint(rep.Corrections)))
	if testMode {
		fmt.Fprint(w, KeyStyle.Render(" (test mode, nothing written)"))
	}
	fmt.Fprintln(w)

	if rep.Failed > 0 {
		fmt.Fprintf(w, "%s %s\n", KeyStyle.Render("Failed:"), ErrorStyle.Render(fmt.Sprint(rep.Failed)))
	}
	if rep.Bypassed > 0 {
		fmt.Fprintf(w, "%s %s\n", KeyStyle.Render("Cache bypasses:"), WarnStyle.Render(fmt.Sprint(rep.Bypassed)))
	}
}
