// SPDX-License-Identifier: EPL-2.0

package ui

import "github.com/ik5/declick"

// ProgressMsg carries a progress update from the Processor.
type ProgressMsg struct {
	declick.Progress
}

// FileCompleteMsg indicates a file has finished processing.
type FileCompleteMsg struct {
	FileIndex int
	Report    declick.FileReport
}

// AllCompleteMsg indicates all files have been processed.
type AllCompleteMsg struct {
	Report declick.Report
}
