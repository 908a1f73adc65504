// Package progress carries structured events from the sync loop to whatever
// renders them. The loop itself never formats user-facing text.
package progress

import (
	"sync"
	"time"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

// EventType discriminates progress events
type EventType string

const (
	EventRunStarted       EventType = "run_started"
	EventNotebookStarted  EventType = "notebook_started"
	EventStageReached     EventType = "stage_reached"
	EventRetryScheduled   EventType = "retry_scheduled"
	EventNotebookFinished EventType = "notebook_finished"
	EventRunFinished      EventType = "run_finished"
)

// Event is one structured progress emission
type Event struct {
	Type  EventType
	Time  time.Time
	Index int // 1-based position in the listing
	Total int
	Ref   domain.NotebookRef
	Stage domain.Stage
	// Detail carries the stage payload: the derived slug, "exists"/"absent"
	// for the probe, the repository URL on creation.
	Detail  string
	Op      string // operation being retried
	Attempt int
	Delay   time.Duration
	Result  *domain.SyncResult // set on notebook_finished
	Report  *domain.SyncReport // set on run_finished
}

// Sink receives events as the run progresses
type Sink interface {
	Emit(Event)
}

// MultiSink fans events out to several sinks
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink that forwards to all provided sinks
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Emit forwards the event to every sink
func (m *MultiSink) Emit(e Event) {
	for _, s := range m.sinks {
		s.Emit(e)
	}
}

// NopSink discards events (for tests or quiet runs)
type NopSink struct{}

func (NopSink) Emit(Event) {}

type lockedSink struct {
	mu   sync.Mutex
	sink Sink
}

// Locked wraps sink so concurrent emitters cannot interleave renders.
// Used when notebooks are processed in parallel.
func Locked(sink Sink) Sink {
	return &lockedSink{sink: sink}
}

func (l *lockedSink) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink.Emit(e)
}
