package hookgate

import (
	"encoding/json"
	"time"

	"github.com/joshyorko/dudley-build/core/fsx"
)

const (
	trailSchemaID = "dudley.hook.trail"
	trailSchemaV1 = "1.0.0"
)

type trailRecord struct {
	SchemaID      string `json:"schema_id"`
	SchemaVersion string `json:"schema_version"`
	At            string `json:"at"`
	Hook          string `json:"hook"`
	Fingerprint   string `json:"fingerprint"`
	Event         string `json:"event"`
	Detail        string `json:"detail,omitempty"`
}

// appendTrail is best-effort: the diagnostic trail must never turn a
// working hook into a failed one.
func appendTrail(trailPath, hookName, fingerprint, event, detail string) {
	if trailPath == "" {
		return
	}
	record := trailRecord{
		SchemaID:      trailSchemaID,
		SchemaVersion: trailSchemaV1,
		At:            time.Now().UTC().Format(time.RFC3339),
		Hook:          hookName,
		Fingerprint:   fingerprint,
		Event:         event,
		Detail:        detail,
	}
	line, err := json.Marshal(record)
	if err != nil {
		return
	}
	_ = fsx.AppendLineLocked(trailPath, line, 0o644)
}
