// SPDX-License-Identifier: EPL-2.0

// Package ui provides the Bubbletea progress display of the declick command.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ik5/declick"
)

// FileStatus is the processing state of a single file.
type FileStatus int

const (
	// StatusQueued is a file not started yet.
	StatusQueued FileStatus = iota
	// StatusProcessing is the file being repaired.
	StatusProcessing
	// StatusComplete is a file processed without error.
	StatusComplete
	// StatusError is a file that failed.
	StatusError
)

// FileProgress tracks one file of the run.
type FileProgress struct {
	Path   string
	Status FileStatus

	Done      int // frames
	Total     int
	StartTime time.Time
	Elapsed   time.Duration

	Report declick.FileReport
}

// Fraction returns the processed share of the file, 0 to 1.
func (fp FileProgress) Fraction() float64 {
	if fp.Total <= 0 {
		return 0
	}
	return float64(fp.Done) / float64(fp.Total)
}

// Model is the Bubbletea model for the processing UI.
type Model struct {
	Files          []FileProgress
	CurrentIndex   int
	CompletedFiles int
	FailedFiles    int
	TestMode       bool

	StartTime time.Time
	Done      bool
	Report    declick.Report

	// Stopping is set once the user asked to quit. Files are edited in
	// place, so the run only ends after the current file.
	Stopping bool
	// Cancel stops the processor from starting further files.
	Cancel func()

	// ProgressChan receives the messages sent by the processing goroutine.
	ProgressChan chan tea.Msg

	Width  int
	Height int
}

// NewModel creates a model for the given files.
func NewModel(paths []string, testMode bool) Model {
	files := make([]FileProgress, len(paths))
	for i, path := range paths {
		files[i] = FileProgress{Path: path, Status: StatusQueued}
	}

	return Model{
		Files:        files,
		CurrentIndex: -1,
		TestMode:     testMode,
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 100),
	}
}

// Init starts listening for progress.
func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.Done {
				return m, tea.Quit
			}
			if !m.Stopping {
				m.Stopping = true
				if m.Cancel != nil {
					m.Cancel()
				}
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case ProgressMsg:
		if msg.File < 0 || msg.File >= len(m.Files) {
			return m, waitForProgress(m.ProgressChan)
		}
		if msg.File != m.CurrentIndex {
			m.CurrentIndex = msg.File
			m.Files[msg.File].StartTime = time.Now()
		}
		fp := &m.Files[msg.File]
		fp.Status = StatusProcessing
		fp.Done, fp.Total = msg.Done, msg.Total
		fp.Elapsed = time.Since(fp.StartTime)
		return m, waitForProgress(m.ProgressChan)

	case FileCompleteMsg:
		if msg.FileIndex < 0 || msg.FileIndex >= len(m.Files) {
			return m, waitForProgress(m.ProgressChan)
		}
		fp := &m.Files[msg.FileIndex]
		fp.Report = msg.Report
		fp.Elapsed = msg.Report.Elapsed
		if msg.Report.Err != nil {
			fp.Status = StatusError
			m.FailedFiles++
		} else {
			fp.Status = StatusComplete
			fp.Done = fp.Total
			m.CompletedFiles++
		}
		m.CurrentIndex = msg.FileIndex
		return m, waitForProgress(m.ProgressChan)

	case AllCompleteMsg:
		m.Done = true
		m.Report = msg.Report
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}

// Progress returns a ProgressFunc that forwards updates to the model.
func (m Model) Progress() declick.ProgressFunc {
	return func(p declick.Progress) {
		m.ProgressChan <- ProgressMsg{Progress: p}
	}
}

// FileDone returns a FileDoneFunc that forwards reports to the model.
func (m Model) FileDone() declick.FileDoneFunc {
	return func(n int, rep declick.FileReport) {
		m.ProgressChan <- FileCompleteMsg{FileIndex: n, Report: rep}
	}
}

func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
