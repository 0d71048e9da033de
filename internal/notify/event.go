package notify

import (
	"encoding/json"
	"time"
)

// Event describes a finished merge run.
type Event struct {
	RunID      string    `json:"run_id"`
	MainModule string    `json:"main_module"`
	Modules    []string  `json:"modules"`
	Skipped    []string  `json:"skipped,omitempty"`
	OutputDir  string    `json:"output_dir"`
	Outcome    string    `json:"outcome"`
	Revision   string    `json:"revision,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Encode returns the JSON payload for e.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
