package meta

import (
	"encoding/json"

	"github.com/google/uuid"
)

// AttemptSource names the lookup path an attempt went through.
type AttemptSource string

const (
	// AttemptSourceStore marks a raw metadata-store lookup.
	AttemptSourceStore AttemptSource = "store"
	// AttemptSourceInternal marks the inheritance walk over the context's
	// internal decorator map.
	AttemptSourceInternal AttemptSource = "internal"
)

// Trace captures provenance for a single resolution: every concrete key the
// resolver tried and where the effective value came from.
type Trace struct {
	ID       string    `json:"id"`
	Key      string    `json:"key"`
	Attempts []Attempt `json:"attempts"`
}

// Attempt details one candidate-key probe.
type Attempt struct {
	ConcreteKey string        `json:"concrete_key"`
	Source      AttemptSource `json:"source"`
	TargetName  string        `json:"target_name,omitempty"`
	Depth       int           `json:"depth,omitempty"`
	Found       bool          `json:"found"`
}

func newTrace(key string) Trace {
	return Trace{ID: uuid.NewString(), Key: key}
}

func (t *Trace) record(attempt Attempt) {
	if t == nil {
		return
	}
	t.Attempts = append(t.Attempts, attempt)
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
