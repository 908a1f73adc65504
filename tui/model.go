package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pintyy/kaggle-sync/internal/domain"
	"github.com/pintyy/kaggle-sync/internal/progress"
)

// row is the display state of one notebook.
type row struct {
	ref      domain.NotebookRef
	stage    domain.Stage
	detail   string
	status   domain.SyncStatus // empty while in flight
	errText  string
	bytes    int64
	duration time.Duration
	started  bool
}

// Model is the live sync dashboard.
type Model struct {
	user    string
	total   int
	rows    []row
	index   map[string]int // ref -> rows position
	report  *domain.SyncReport
	started time.Time

	width   int
	height  int
	frame   int
	done    bool
	aborted bool
}

// NewModel creates the dashboard model for a run against user's notebooks.
func NewModel(user string) Model {
	return Model{
		user:    user,
		index:   make(map[string]int),
		started: time.Now(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// EventMsg carries one progress event into the bubbletea loop.
type EventMsg progress.Event

// Sink forwards progress events into a running bubbletea program.
type Sink struct {
	program *tea.Program
}

// NewSink wraps p so the syncer can emit straight into the TUI.
func NewSink(p *tea.Program) *Sink {
	return &Sink{program: p}
}

// Emit implements progress.Sink.
func (s *Sink) Emit(e progress.Event) {
	s.program.Send(EventMsg(e))
}

// TickMsg advances the spinner
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
