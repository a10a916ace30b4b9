package manifest

import (
	"fmt"

	coreerrors "github.com/joshyorko/dudley-build/core/errors"
	"github.com/joshyorko/dudley-build/core/fsx"
	schemamanifest "github.com/joshyorko/dudley-build/core/schema/v1/manifest"
)

const (
	// FileMode is world-readable: hooks and the display tool read the
	// manifest as unprivileged users at login.
	FileMode = 0o644
	DirMode  = 0o755

	// The manifest is baked into every image layer; past this size the
	// writer warns so oversized hook metadata gets noticed in the build log.
	sizeWarnThreshold = 50 * 1024
)

// Write validates the manifest and persists it atomically at path with
// mode 0644. An invalid manifest fails before the filesystem is touched.
// Returned warnings are advisory only; the write has already succeeded.
func Write(input schemamanifest.BuildManifest, path string) ([]string, error) {
	if violations := Validate(input); len(violations) > 0 {
		return nil, ValidationError(violations)
	}

	encoded, err := Encode(input)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if len(encoded) > sizeWarnThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"manifest is %d bytes, over the %d byte advisory limit", len(encoded), sizeWarnThreshold))
	}

	if err := fsx.WriteFileAtomic(path, encoded, FileMode, DirMode); err != nil {
		return nil, coreerrors.Wrap(
			err, coreerrors.CategoryIOFailure, "write_failed",
			"check permissions on the manifest output directory", false,
		)
	}
	return warnings, nil
}
