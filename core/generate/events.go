package generate

import (
	"encoding/json"
	"time"

	"github.com/joshyorko/dudley-build/core/fsx"
)

const (
	buildEventSchemaID = "dudley.build.event"
	buildEventSchemaV1 = "1.0.0"
)

type buildEvent struct {
	SchemaID      string   `json:"schema_id"`
	SchemaVersion string   `json:"schema_version"`
	At            string   `json:"at"`
	Event         string   `json:"event"`
	Image         string   `json:"image"`
	Commit        string   `json:"commit"`
	Digest        string   `json:"digest"`
	HookCount     int      `json:"hook_count"`
	Warnings      []string `json:"warnings,omitempty"`
}

// appendBuildEvent is best-effort; a failed event append never fails a
// build that already wrote a valid manifest.
func appendBuildEvent(buildContext BuildContext, digest string, hookCount int, warnings []string) {
	if buildContext.EventLogPath == "" {
		return
	}
	event := buildEvent{
		SchemaID:      buildEventSchemaID,
		SchemaVersion: buildEventSchemaV1,
		At:            time.Now().UTC().Format(time.RFC3339),
		Event:         "build.manifest.generated",
		Image:         buildContext.ImageRef,
		Commit:        buildContext.CommitSHA,
		Digest:        digest,
		HookCount:     hookCount,
		Warnings:      warnings,
	}
	line, err := json.Marshal(event)
	if err != nil {
		return
	}
	_ = fsx.AppendLineLocked(buildContext.EventLogPath, line, 0o644)
}
