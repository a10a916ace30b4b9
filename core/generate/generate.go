// Package generate orchestrates one manifest generation pass per image
// build: resolve each hook's dependency set, fingerprint it, assemble the
// manifest, validate, persist, and hand the fingerprints back to the
// embedding build for placeholder substitution.
package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	coreerrors "github.com/joshyorko/dudley-build/core/errors"
	"github.com/joshyorko/dudley-build/core/fingerprint"
	"github.com/joshyorko/dudley-build/core/manifest"
)

// BuildContext is the injected configuration for one generation pass;
// nothing here is read from ambient process state.
type BuildContext struct {
	// RepoRoot anchors every dependency path in the hook table.
	RepoRoot string
	// Image metadata recorded in the manifest.
	ImageRef     string
	BaseImageRef string
	CommitSHA    string
	// OutputPath is where the validated manifest lands (on-image:
	// /etc/dudley/build-manifest.json).
	OutputPath string
	// PriorManifestPath, when set and present, is the previous build's
	// manifest; per-hook "changed" metadata is a real diff against it.
	PriorManifestPath string
	// EventLogPath, when set, receives one JSONL event per generation.
	EventLogPath string
}

// Result is what the embedding build consumes after a successful pass.
type Result struct {
	// Fingerprints maps hook name to the fingerprint substituted for the
	// __CONTENT_VERSION__ placeholder in that hook's script.
	Fingerprints map[string]string
	// Digest is the canonical (RFC 8785) sha256 of the written manifest.
	Digest string
	// Warnings are advisory writer messages (e.g. manifest size).
	Warnings []string
}

type resolvedDeps struct {
	rel      []string
	abs      []string
	extraAbs []string
}

// Generate runs one full manifest pass. Any failure aborts the whole pass
// with nothing written; the embedding image build must fail rather than
// ship a missing or inconsistent manifest.
func Generate(buildContext BuildContext, hooks []HookDef) (Result, error) {
	if strings.TrimSpace(buildContext.RepoRoot) == "" {
		return Result{}, coreerrors.Wrap(
			fmt.Errorf("build context repo root is required"),
			coreerrors.CategoryInvalidInput, "missing_repo_root", "", false,
		)
	}
	normalized, err := NormalizeHooks(hooks)
	if err != nil {
		return Result{}, coreerrors.Wrap(err, coreerrors.CategoryInvalidInput, "invalid_hook_table", "", false)
	}

	prior := loadPriorFingerprints(buildContext.PriorManifestPath)

	built, err := manifest.New(buildContext.ImageRef, buildContext.BaseImageRef, buildContext.CommitSHA)
	if err != nil {
		return Result{}, err
	}

	fingerprints := make(map[string]string, len(normalized))
	for _, def := range normalized {
		resolved, err := resolveDependencies(buildContext.RepoRoot, def)
		if err != nil {
			return Result{}, err
		}

		hookFingerprint, err := fingerprint.Compute(resolved.abs)
		if err != nil {
			return Result{}, fmt.Errorf("hook %s: %w", def.Name, err)
		}

		metadata := map[string]any{}
		if def.Extractor != "" {
			extracted, err := extractors[def.Extractor](resolved)
			if err != nil {
				return Result{}, coreerrors.Wrap(
					fmt.Errorf("hook %s: %w", def.Name, err),
					coreerrors.CategoryInvalidInput, "extractor_failed", "", false,
				)
			}
			for key, value := range extracted {
				metadata[key] = value
			}
		}
		priorFingerprint, hadPrior := prior[def.Name]
		metadata["changed"] = !hadPrior || priorFingerprint != hookFingerprint

		built, err = manifest.AddHook(built, def.Name, hookFingerprint, resolved.rel, metadata)
		if err != nil {
			return Result{}, err
		}
		fingerprints[def.Name] = hookFingerprint
	}

	if violations := manifest.Validate(built); len(violations) > 0 {
		return Result{}, manifest.ValidationError(violations)
	}

	warnings, err := manifest.Write(built, buildContext.OutputPath)
	if err != nil {
		return Result{}, err
	}

	digest, err := manifest.CanonicalDigest(built)
	if err != nil {
		return Result{}, err
	}

	appendBuildEvent(buildContext, digest, len(fingerprints), warnings)

	return Result{Fingerprints: fingerprints, Digest: digest, Warnings: warnings}, nil
}

// resolveDependencies expands a hook's dependency set: its own script plus
// every file matched by its extra globs, deduplicated and sorted. Paths in
// the manifest stay repo-relative; hashing uses the absolute forms.
func resolveDependencies(repoRoot string, def HookDef) (resolvedDeps, error) {
	var resolved resolvedDeps
	seen := map[string]struct{}{}

	add := func(absPath string, extra bool) error {
		relPath, err := filepath.Rel(repoRoot, absPath)
		if err != nil {
			return fmt.Errorf("hook %s: relativize %s: %w", def.Name, absPath, err)
		}
		relPath = filepath.ToSlash(relPath)
		if _, duplicate := seen[relPath]; duplicate {
			return nil
		}
		seen[relPath] = struct{}{}
		resolved.rel = append(resolved.rel, relPath)
		resolved.abs = append(resolved.abs, absPath)
		if extra {
			resolved.extraAbs = append(resolved.extraAbs, absPath)
		}
		return nil
	}

	if err := add(filepath.Join(repoRoot, def.Script), false); err != nil {
		return resolvedDeps{}, err
	}

	for _, pattern := range def.Extra {
		matches, err := filepath.Glob(filepath.Join(repoRoot, pattern))
		if err != nil {
			return resolvedDeps{}, coreerrors.Wrap(
				fmt.Errorf("hook %s: bad dependency glob %q: %w", def.Name, pattern, err),
				coreerrors.CategoryInvalidInput, "invalid_hook_table", "", false,
			)
		}
		sort.Strings(matches)
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return resolvedDeps{}, fmt.Errorf("hook %s: stat %s: %w", def.Name, match, err)
			}
			if !info.Mode().IsRegular() {
				continue
			}
			if err := add(match, true); err != nil {
				return resolvedDeps{}, err
			}
		}
	}
	return resolved, nil
}

// loadPriorFingerprints is best-effort: a missing or unreadable prior
// manifest just means every hook reports changed=true, which is exactly
// what a fresh build should say.
func loadPriorFingerprints(path string) map[string]string {
	prior := map[string]string{}
	if path == "" {
		return prior
	}
	loaded, err := manifest.Load(path)
	if err != nil {
		return prior
	}
	for name, descriptor := range loaded.Hooks {
		prior[name] = descriptor.Version
	}
	return prior
}
