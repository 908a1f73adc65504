package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pintyy/kaggle-sync/internal/domain"
	"github.com/pintyy/kaggle-sync/internal/progress"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		m.frame++
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case EventMsg:
		return m.applyEvent(progress.Event(msg))
	}

	return m, nil
}

// applyEvent folds one sync event into the display state.
func (m Model) applyEvent(e progress.Event) (tea.Model, tea.Cmd) {
	switch e.Type {
	case progress.EventRunStarted:
		m.total = e.Total
		m.rows = make([]row, e.Total)

	case progress.EventNotebookStarted:
		if e.Index < 1 || e.Index > len(m.rows) {
			break
		}
		pos := e.Index - 1
		m.rows[pos] = row{ref: e.Ref, stage: domain.StagePending, started: true}
		m.index[e.Ref.Ref()] = pos

	case progress.EventStageReached:
		if pos, ok := m.index[e.Ref.Ref()]; ok {
			m.rows[pos].stage = e.Stage
			m.rows[pos].detail = e.Detail
		}

	case progress.EventRetryScheduled:
		if pos, ok := m.index[e.Ref.Ref()]; ok {
			m.rows[pos].detail = fmt.Sprintf("retrying %s in %s (attempt %d)",
				e.Op, e.Delay.Round(10*time.Millisecond), e.Attempt)
		}

	case progress.EventNotebookFinished:
		pos, ok := m.index[e.Ref.Ref()]
		if !ok || e.Result == nil {
			break
		}
		m.rows[pos].status = e.Result.Status
		m.rows[pos].errText = e.Result.Error
		m.rows[pos].bytes = e.Result.Bytes
		m.rows[pos].duration = e.Result.Duration
		if e.Result.RepoURL != "" {
			m.rows[pos].detail = e.Result.RepoURL
		}

	case progress.EventRunFinished:
		m.report = e.Report
		m.done = true
		if e.Report != nil && e.Report.Skipped() > 0 {
			m.aborted = true
		}
		return m, tea.Quit
	}

	return m, nil
}

// Report returns the final report once the run has finished.
func (m Model) Report() *domain.SyncReport {
	return m.report
}
