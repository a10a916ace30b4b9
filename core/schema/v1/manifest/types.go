package manifest

import (
	_ "embed"
)

const (
	// SchemaVersion is the manifest document version stamped at build time.
	SchemaVersion = "1.0.0"
)

// SchemaJSON is the JSON Schema the persisted manifest document must
// satisfy. The same document ships with the image so external tooling can
// validate /etc/dudley/build-manifest.json without this module.
//
//go:embed build-manifest.schema.json
var SchemaJSON []byte

// BuildManifest is the persisted build document: one per image build,
// written once, read-only for the lifetime of the image.
type BuildManifest struct {
	SchemaVersion string                    `json:"version"`
	Build         BuildInfo                 `json:"build"`
	Hooks         map[string]HookDescriptor `json:"hooks"`
}

// BuildInfo records where and when the image was built.
type BuildInfo struct {
	Date   string `json:"date"`
	Image  string `json:"image"`
	Base   string `json:"base"`
	Commit string `json:"commit"`
}

// HookDescriptor records one first-boot hook: the fingerprint baked into
// its script, the files hashed to produce it, and hook-specific metadata.
type HookDescriptor struct {
	Version      string         `json:"version"`
	Dependencies []string       `json:"dependencies"`
	Metadata     map[string]any `json:"metadata"`
}
