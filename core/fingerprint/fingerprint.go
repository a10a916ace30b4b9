// Package fingerprint computes the content fingerprints that gate
// first-boot hook re-execution across image upgrades.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"

	coreerrors "github.com/joshyorko/dudley-build/core/errors"
)

// Length is the number of lowercase hex characters in a fingerprint.
// 32 bits is enough to avoid accidental collisions across the handful of
// hooks in one build; this is an accepted tradeoff, not a security boundary.
const Length = 8

var fingerprintPattern = regexp.MustCompile(`^[a-f0-9]{8}$`)

// Valid reports whether value is a well-formed content fingerprint.
func Valid(value string) bool {
	return fingerprintPattern.MatchString(value)
}

// Compute returns the fingerprint for a set of files: paths are sorted
// byte-wise, contents are streamed into one sha256 in that order, and the
// first 8 hex characters of the digest are returned. The same file set
// always yields the same fingerprint regardless of input ordering.
//
// The contract is all-or-nothing: an empty path list or any missing or
// unreadable file fails without a partial result.
func Compute(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", coreerrors.Wrap(
			fmt.Errorf("no dependency paths supplied"),
			coreerrors.CategoryInvalidInput, "empty_input",
			"every hook must declare at least one dependency file", false,
		)
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	for _, path := range sorted {
		info, err := os.Stat(path)
		if err != nil {
			return "", coreerrors.Wrap(
				fmt.Errorf("dependency file %s: %w", path, err),
				coreerrors.CategoryDependencyMissing, "missing_file",
				"check the hook's dependency paths against the repo", false,
			)
		}
		if !info.Mode().IsRegular() {
			return "", coreerrors.Wrap(
				fmt.Errorf("dependency path %s is not a regular file", path),
				coreerrors.CategoryInvalidInput, "missing_file",
				"hook dependencies must be regular files", false,
			)
		}
	}

	digest := sha256.New()
	for _, path := range sorted {
		// #nosec G304 -- dependency paths come from the build's declarative hook table.
		file, err := os.Open(path)
		if err != nil {
			return "", coreerrors.Wrap(
				fmt.Errorf("open dependency file %s: %w", path, err),
				coreerrors.CategoryDependencyMissing, "missing_file",
				"check file permissions in the build context", false,
			)
		}
		_, copyErr := io.Copy(digest, file)
		closeErr := file.Close()
		if copyErr != nil {
			return "", coreerrors.Wrap(
				fmt.Errorf("read dependency file %s: %w", path, copyErr),
				coreerrors.CategoryIOFailure, "read_failed", "", false,
			)
		}
		if closeErr != nil {
			return "", coreerrors.Wrap(
				fmt.Errorf("close dependency file %s: %w", path, closeErr),
				coreerrors.CategoryIOFailure, "read_failed", "", false,
			)
		}
	}

	return hex.EncodeToString(digest.Sum(nil))[:Length], nil
}
