package output

import (
	"time"

	"payloadmedic/internal/evaluator"
)

// Report is the outcome of one processor call.
type Report struct {
	BatchID string `json:"batch_id" yaml:"batch_id" toml:"batch_id"`
	Mode    string `json:"mode" yaml:"mode" toml:"mode"`
	// Correlation is the payload tracker URL (transitive) or the fix version (explicit).
	Correlation string    `json:"correlation" yaml:"correlation" toml:"correlation"`
	Stream      string    `json:"stream" yaml:"stream" toml:"stream"`
	Tracker     string    `json:"tracker" yaml:"tracker" toml:"tracker"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at" toml:"generated_at"`

	// Requested counts the dependencies asked for; Evaluated the records produced.
	Requested int `json:"requested" yaml:"requested" toml:"requested"`
	Evaluated int `json:"evaluated" yaml:"evaluated" toml:"evaluated"`
	ExitCode  int `json:"exit_code" yaml:"exit_code" toml:"exit_code"`

	Records []evaluator.Record `json:"records" yaml:"records" toml:"records"`
}

// Partial reports whether some requested dependencies produced no record.
func (r *Report) Partial() bool {
	return r.Evaluated < r.Requested
}

// Event is one NDJSON line. A report streams as:
// - batch.started
// - issue.record (one per record, in result order)
// - batch.finished
type Event struct {
	Type        string           `json:"type"`
	BatchID     string           `json:"batch_id"`
	Mode        string           `json:"mode,omitempty"`
	Correlation string           `json:"correlation,omitempty"`
	Stream      string           `json:"stream,omitempty"`
	Record      evaluator.Record `json:"record,omitempty"`
	Requested   int              `json:"requested,omitempty"`
	Evaluated   int              `json:"evaluated,omitempty"`
	ExitCode    int              `json:"exit_code,omitempty"`
}

func (r *Report) events() []Event {
	out := make([]Event, 0, len(r.Records)+2)
	out = append(out, Event{
		Type:        "batch.started",
		BatchID:     r.BatchID,
		Mode:        r.Mode,
		Correlation: r.Correlation,
		Stream:      r.Stream,
		Requested:   r.Requested,
	})
	for _, rec := range r.Records {
		out = append(out, Event{Type: "issue.record", BatchID: r.BatchID, Record: rec})
	}
	out = append(out, Event{
		Type:      "batch.finished",
		BatchID:   r.BatchID,
		Requested: r.Requested,
		Evaluated: r.Evaluated,
		ExitCode:  r.ExitCode,
	})
	return out
}
