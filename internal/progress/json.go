package progress

import (
	"encoding/json"
	"io"
)

// JSONSink writes the final report as indented JSON, one document per run.
// Intermediate events are ignored so stdout stays machine-readable.
type JSONSink struct {
	w io.Writer
}

// NewJSON creates a sink writing the report to w
func NewJSON(w io.Writer) *JSONSink {
	return &JSONSink{w: w}
}

// Emit writes the report when the run finishes
func (j *JSONSink) Emit(e Event) {
	if e.Type != EventRunFinished || e.Report == nil {
		return
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	enc.Encode(e.Report)
}
