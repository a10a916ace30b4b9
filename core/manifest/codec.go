package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gowebpki/jcs"

	coreerrors "github.com/joshyorko/dudley-build/core/errors"
	schemamanifest "github.com/joshyorko/dudley-build/core/schema/v1/manifest"
)

// Encode serializes a manifest as pretty-printed JSON with a trailing
// newline, the exact byte form persisted on the image.
func Encode(input schemamanifest.BuildManifest) ([]byte, error) {
	encoded, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return nil, coreerrors.Wrap(
			fmt.Errorf("marshal manifest: %w", err),
			coreerrors.CategoryInternalFailure, "encode_failed", "", false,
		)
	}
	return append(encoded, '\n'), nil
}

// Parse decodes manifest bytes without validating them; callers decide
// whether to run Validate or ValidateJSONSchema on top.
func Parse(data []byte) (schemamanifest.BuildManifest, error) {
	var decoded schemamanifest.BuildManifest
	if err := json.Unmarshal(data, &decoded); err != nil {
		return schemamanifest.BuildManifest{}, coreerrors.Wrap(
			fmt.Errorf("parse manifest json: %w", err),
			coreerrors.CategoryInvalidInput, "parse_failed",
			"the manifest file is not valid JSON", false,
		)
	}
	return decoded, nil
}

// Load reads and parses a manifest file.
func Load(path string) (schemamanifest.BuildManifest, error) {
	// #nosec G304 -- manifest path is explicit local caller input.
	data, err := os.ReadFile(path)
	if err != nil {
		return schemamanifest.BuildManifest{}, coreerrors.Wrap(
			fmt.Errorf("read manifest %s: %w", path, err),
			coreerrors.CategoryDependencyMissing, "manifest_missing", "", false,
		)
	}
	return Parse(data)
}

// CanonicalDigest returns the sha256 hex digest of the manifest's RFC 8785
// canonical JSON form. Two images built from identical inputs produce the
// same digest apart from build.date, so the digest identifies one build.
func CanonicalDigest(input schemamanifest.BuildManifest) (string, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return "", coreerrors.Wrap(
			fmt.Errorf("marshal manifest for digest: %w", err),
			coreerrors.CategoryInternalFailure, "digest_failed", "", false,
		)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", coreerrors.Wrap(
			fmt.Errorf("canonicalize manifest: %w", err),
			coreerrors.CategoryInternalFailure, "digest_failed", "", false,
		)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
