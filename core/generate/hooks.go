package generate

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	hookSetSchemaID = "dudley.build.hooks"
	hookSetSchemaV1 = "1.0.0"
)

// HookDef is one row of the declarative hook table: adding a hook to the
// image is a data edit here (or in a hook-set file), never a new code path.
type HookDef struct {
	// Name keys the manifest entry and the runtime version store.
	Name string `yaml:"name"`
	// Script is the hook's own source, relative to the repo root. Always
	// part of the dependency set.
	Script string `yaml:"script"`
	// Extra lists additional dependency globs relative to the repo root
	// (asset directories, list files).
	Extra []string `yaml:"extra,omitempty"`
	// Extractor names an optional metadata extractor; see extractors.go.
	Extractor string `yaml:"extractor,omitempty"`
}

// HookSet is the YAML document form of the hook table.
type HookSet struct {
	SchemaID      string    `yaml:"schema_id"`
	SchemaVersion string    `yaml:"schema_version"`
	Hooks         []HookDef `yaml:"hooks"`
}

var hookNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// DefaultHooks is the built-in table for the dudley image.
func DefaultHooks() []HookDef {
	return []HookDef{
		{
			Name:      "wallpaper",
			Script:    "build_files/user-hooks/10-wallpaper.sh",
			Extra:     []string{"assets/wallpapers/*"},
			Extractor: ExtractorWallpaperCount,
		},
		{
			Name:      "vscode-extensions",
			Script:    "build_files/user-hooks/20-vscode-extensions.sh",
			Extra:     []string{"build_files/vscode-extensions.list"},
			Extractor: ExtractorListLines,
		},
		{
			Name:   "holotree-init",
			Script: "build_files/user-hooks/30-holotree-init.sh",
		},
	}
}

// LoadHookSet reads and normalizes a hook-set YAML file.
func LoadHookSet(path string) ([]HookDef, error) {
	// #nosec G304 -- hook-set path is explicit local build input.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hook set: %w", err)
	}
	return ParseHookSetYAML(content)
}

func ParseHookSetYAML(data []byte) ([]HookDef, error) {
	var hookSet HookSet
	if err := yaml.Unmarshal(data, &hookSet); err != nil {
		return nil, fmt.Errorf("parse hook set yaml: %w", err)
	}
	return normalizeHookSet(hookSet)
}

func normalizeHookSet(input HookSet) ([]HookDef, error) {
	if input.SchemaID == "" {
		input.SchemaID = hookSetSchemaID
	}
	if input.SchemaID != hookSetSchemaID {
		return nil, fmt.Errorf("unsupported hook set schema_id: %s", input.SchemaID)
	}
	if input.SchemaVersion == "" {
		input.SchemaVersion = hookSetSchemaV1
	}
	if input.SchemaVersion != hookSetSchemaV1 {
		return nil, fmt.Errorf("unsupported hook set schema_version: %s", input.SchemaVersion)
	}
	if len(input.Hooks) == 0 {
		return nil, fmt.Errorf("hook set declares no hooks")
	}
	return NormalizeHooks(input.Hooks)
}

// NormalizeHooks validates a hook table: well-formed unique names, a
// script per hook, and known extractor kinds.
func NormalizeHooks(input []HookDef) ([]HookDef, error) {
	output := append([]HookDef(nil), input...)
	seen := map[string]struct{}{}
	for index := range output {
		def := &output[index]
		def.Name = strings.TrimSpace(def.Name)
		if !hookNamePattern.MatchString(def.Name) {
			return nil, fmt.Errorf("hook name %q must match ^[a-zA-Z0-9_-]+$", def.Name)
		}
		if _, duplicate := seen[def.Name]; duplicate {
			return nil, fmt.Errorf("duplicate hook name: %s", def.Name)
		}
		seen[def.Name] = struct{}{}

		def.Script = strings.TrimSpace(def.Script)
		if def.Script == "" {
			return nil, fmt.Errorf("hook %s: script is required", def.Name)
		}

		def.Extractor = strings.TrimSpace(def.Extractor)
		if def.Extractor != "" {
			if _, known := extractors[def.Extractor]; !known {
				return nil, fmt.Errorf("hook %s: unknown extractor %q", def.Name, def.Extractor)
			}
		}
	}
	return output, nil
}
