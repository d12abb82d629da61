// SPDX-License-Identifier: EPL-2.0

package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ik5/declick"
	"github.com/ik5/declick/engine"
)

func update(t *testing.T, m Model, msg any) Model {
	t.Helper()

	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return model
}

func TestModel_Flow(t *testing.T) {
	t.Parallel()

	m := NewModel([]string{"01.wav", "02.wav"}, false)
	if m.CurrentIndex != -1 || m.Files[0].Status != StatusQueued {
		t.Fatalf("initial model = %+v", m)
	}

	m = update(t, m, ProgressMsg{declick.Progress{File: 0, Files: 2, Done: 50, Total: 200}})
	if m.CurrentIndex != 0 || m.Files[0].Status != StatusProcessing {
		t.Errorf("after progress: index %d, status %d", m.CurrentIndex, m.Files[0].Status)
	}
	if got := m.Files[0].Fraction(); got != 0.25 {
		t.Errorf("Fraction() = %v, want 0.25", got)
	}
	if !strings.Contains(m.View(), "25%") {
		t.Errorf("View() misses the progress:\n%s", m.View())
	}

	m = update(t, m, FileCompleteMsg{FileIndex: 0, Report: declick.FileReport{Path: "01.wav", Engine: engine.Result{Corrections: 2}}})
	m = update(t, m, FileCompleteMsg{FileIndex: 1, Report: declick.FileReport{Path: "02.wav", Err: errors.New("not a WAVE file")}})
	if m.CompletedFiles != 1 || m.FailedFiles != 1 {
		t.Errorf("completed %d, failed %d", m.CompletedFiles, m.FailedFiles)
	}
	if m.Files[0].Status != StatusComplete || m.Files[1].Status != StatusError {
		t.Errorf("statuses = %d/%d", m.Files[0].Status, m.Files[1].Status)
	}

	rep := declick.Report{Files: []declick.FileReport{m.Files[0].Report, m.Files[1].Report}, Failed: 1, Corrections: 2}
	m = update(t, m, AllCompleteMsg{Report: rep})
	if !m.Done {
		t.Fatal("model not done")
	}
	view := m.View()
	for _, w := range []string{"finished with errors", "2 clicks", "not a WAVE file"} {
		if !strings.Contains(view, w) {
			t.Errorf("View() misses %q:\n%s", w, view)
		}
	}
}

func TestModel_QuitWaitsForCurrentFile(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"q", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			t.Parallel()

			cancels := 0
			m := NewModel([]string{"01.wav", "02.wav"}, false)
			m.Cancel = func() { cancels++ }
			m = update(t, m, ProgressMsg{declick.Progress{File: 0, Files: 2, Done: 10, Total: 100}})

			msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
			if key == "ctrl+c" {
				msg = tea.KeyMsg{Type: tea.KeyCtrlC}
			}
			for range 2 {
				next, cmd := m.Update(msg)
				if cmd != nil {
					t.Fatal("quit while a file is being processed")
				}
				m = next.(Model)
			}
			if !m.Stopping || cancels != 1 {
				t.Errorf("Stopping = %v, cancels = %d, want true and 1", m.Stopping, cancels)
			}
			if !strings.Contains(m.View(), "Stopping after the current file") {
				t.Errorf("View() misses the stop notice:\n%s", m.View())
			}

			// the run ends only with the final report
			m = update(t, m, FileCompleteMsg{FileIndex: 0, Report: declick.FileReport{Path: "01.wav"}})
			next, cmd := m.Update(AllCompleteMsg{Report: declick.Report{Files: []declick.FileReport{{Path: "01.wav"}}}})
			if cmd == nil || !next.(Model).Done {
				t.Error("AllCompleteMsg did not end the run")
			}
		})
	}
}

func TestModel_IgnoresUnknownFile(t *testing.T) {
	t.Parallel()

	m := NewModel([]string{"01.wav"}, true)
	m = update(t, m, ProgressMsg{declick.Progress{File: 3}})
	m = update(t, m, FileCompleteMsg{FileIndex: -1})
	if m.CurrentIndex != -1 || m.CompletedFiles != 0 {
		t.Errorf("model changed: %+v", m)
	}
}

func TestModel_ForwardingFuncs(t *testing.T) {
	t.Parallel()

	m := NewModel([]string{"01.wav"}, false)
	m.Progress()(declick.Progress{Done: 1, Total: 2})
	m.FileDone()(0, declick.FileReport{Path: "01.wav"})

	if msg := <-m.ProgressChan; msg != (ProgressMsg{declick.Progress{Done: 1, Total: 2}}) {
		t.Errorf("first message = %#v", msg)
	}
	if msg, ok := (<-m.ProgressChan).(FileCompleteMsg); !ok || msg.Report.Path != "01.wav" {
		t.Errorf("second message = %#v", msg)
	}
}

func TestRenderProgressBar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		progress float64
		want     string
	}{
		{0, "░░░░ 0%"},
		{0.5, "██░░ 50%"},
		{1, "████ 100%"},
		{2, "████ 100%"},
	}
	for _, tt := range tests {
		if got := renderProgressBar(tt.progress, 4); got != tt.want {
			t.Errorf("renderProgressBar(%v) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}
