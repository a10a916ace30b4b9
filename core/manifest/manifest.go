// Package manifest builds, validates, and persists the per-image build
// manifest that records every first-boot hook's content fingerprint.
package manifest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	coreerrors "github.com/joshyorko/dudley-build/core/errors"
	"github.com/joshyorko/dudley-build/core/fingerprint"
	schemamanifest "github.com/joshyorko/dudley-build/core/schema/v1/manifest"
)

var (
	hookNamePattern      = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	schemaVersionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// New returns an empty manifest stamped with the current UTC build date.
// All three references are required; the embedding build passes "unknown"
// for the commit when it builds outside a git checkout.
func New(imageRef, baseImageRef, commitSHA string) (schemamanifest.BuildManifest, error) {
	if strings.TrimSpace(imageRef) == "" {
		return schemamanifest.BuildManifest{}, newSchemaViolation("build.image must not be empty")
	}
	if strings.TrimSpace(baseImageRef) == "" {
		return schemamanifest.BuildManifest{}, newSchemaViolation("build.base must not be empty")
	}
	if strings.TrimSpace(commitSHA) == "" {
		return schemamanifest.BuildManifest{}, newSchemaViolation("build.commit must not be empty")
	}
	return schemamanifest.BuildManifest{
		SchemaVersion: schemamanifest.SchemaVersion,
		Build: schemamanifest.BuildInfo{
			Date:   time.Now().UTC().Format(time.RFC3339),
			Image:  imageRef,
			Base:   baseImageRef,
			Commit: commitSHA,
		},
		Hooks: map[string]schemamanifest.HookDescriptor{},
	}, nil
}

// AddHook returns a copy of the manifest with one hook entry added. An
// existing entry with the same name is replaced. The input manifest is
// never mutated, so a failed call leaves the caller's value intact.
func AddHook(
	input schemamanifest.BuildManifest,
	name string,
	hookFingerprint string,
	dependencies []string,
	metadata map[string]any,
) (schemamanifest.BuildManifest, error) {
	if !hookNamePattern.MatchString(name) {
		return schemamanifest.BuildManifest{}, newSchemaViolation(
			fmt.Sprintf("hook name %q must match ^[a-zA-Z0-9_-]+$", name))
	}
	if !fingerprint.Valid(hookFingerprint) {
		return schemamanifest.BuildManifest{}, newSchemaViolation(
			fmt.Sprintf("hook %s: fingerprint %q must match ^[a-f0-9]{8}$", name, hookFingerprint))
	}
	if len(dependencies) == 0 {
		return schemamanifest.BuildManifest{}, newSchemaViolation(
			fmt.Sprintf("hook %s: dependencies must not be empty", name))
	}

	if metadata == nil {
		metadata = map[string]any{}
	}

	output := input
	output.Hooks = make(map[string]schemamanifest.HookDescriptor, len(input.Hooks)+1)
	for existingName, descriptor := range input.Hooks {
		output.Hooks[existingName] = descriptor
	}
	output.Hooks[name] = schemamanifest.HookDescriptor{
		Version:      hookFingerprint,
		Dependencies: append([]string(nil), dependencies...),
		Metadata:     metadata,
	}
	return output, nil
}

// Validate checks every manifest constraint and reports all violations as
// human-readable messages; an empty slice means the manifest is valid.
// It never short-circuits, so one pass over a broken manifest surfaces
// every defect in the build log.
func Validate(input schemamanifest.BuildManifest) []string {
	var violations []string

	if input.SchemaVersion == "" {
		violations = append(violations, "version is required")
	} else if !schemaVersionPattern.MatchString(input.SchemaVersion) {
		violations = append(violations,
			fmt.Sprintf("version %q must match ^\\d+\\.\\d+\\.\\d+$", input.SchemaVersion))
	}

	if strings.TrimSpace(input.Build.Date) == "" {
		violations = append(violations, "build.date is required")
	}
	if strings.TrimSpace(input.Build.Image) == "" {
		violations = append(violations, "build.image is required")
	}
	if strings.TrimSpace(input.Build.Base) == "" {
		violations = append(violations, "build.base is required")
	}
	if strings.TrimSpace(input.Build.Commit) == "" {
		violations = append(violations, "build.commit is required")
	}

	if len(input.Hooks) == 0 {
		violations = append(violations, "hooks must contain at least one entry")
		return violations
	}

	names := make([]string, 0, len(input.Hooks))
	for name := range input.Hooks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		descriptor := input.Hooks[name]
		if !hookNamePattern.MatchString(name) {
			violations = append(violations,
				fmt.Sprintf("hook name %q must match ^[a-zA-Z0-9_-]+$", name))
		}
		if !fingerprint.Valid(descriptor.Version) {
			violations = append(violations,
				fmt.Sprintf("hook %s: version %q must match ^[a-f0-9]{8}$", name, descriptor.Version))
		}
		if len(descriptor.Dependencies) == 0 {
			violations = append(violations,
				fmt.Sprintf("hook %s: dependencies must not be empty", name))
		}
	}
	return violations
}

// ValidationError wraps an accumulated violation list as a single
// classified error for callers that abort on the first invalid manifest.
func ValidationError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return coreerrors.Wrap(
		fmt.Errorf("manifest validation failed:\n  - %s", strings.Join(violations, "\n  - ")),
		coreerrors.CategorySchemaViolation, "manifest_invalid",
		"fix every listed violation; the build must not ship this manifest", false,
	)
}

func newSchemaViolation(message string) error {
	return coreerrors.Wrap(
		fmt.Errorf("%s", message),
		coreerrors.CategorySchemaViolation, "schema_violation", "", false,
	)
}
