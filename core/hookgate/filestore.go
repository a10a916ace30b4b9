package hookgate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joshyorko/dudley-build/core/fingerprint"
	"github.com/joshyorko/dudley-build/core/fsx"
)

// FileStore keeps one fingerprint file per hook under a state directory,
// matching the per-user convention of the ublue user-setup runtime.
// Absent file means the hook has never been applied on this machine.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

// DefaultFileStore resolves $XDG_STATE_HOME/dudley/hook-versions, falling
// back to ~/.local/state when the variable is unset.
func DefaultFileStore() (*FileStore, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return NewFileStore(filepath.Join(stateHome, "dudley", "hook-versions")), nil
}

func (s *FileStore) hookPath(hookName string) (string, error) {
	if !hookNamePattern.MatchString(hookName) {
		return "", fmt.Errorf("hook name %q must match ^[a-zA-Z0-9_-]+$", hookName)
	}
	return filepath.Join(s.baseDir, hookName), nil
}

func (s *FileStore) LastKnown(hookName string) (string, bool, error) {
	path, err := s.hookPath(hookName)
	if err != nil {
		return "", false, err
	}
	// #nosec G304 -- path is the store base joined with a validated hook name.
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read version file %s: %w", path, err)
	}
	stored := strings.TrimSpace(string(raw))
	if !fingerprint.Valid(stored) {
		// A corrupted record must not pin the hook forever; treat it as absent.
		return "", false, nil
	}
	return stored, true, nil
}

func (s *FileStore) Record(hookName, appliedFingerprint string) error {
	path, err := s.hookPath(hookName)
	if err != nil {
		return err
	}
	if !fingerprint.Valid(appliedFingerprint) {
		return fmt.Errorf("refusing to record malformed fingerprint %q for hook %s", appliedFingerprint, hookName)
	}
	return fsx.WriteFileAtomic(path, []byte(appliedFingerprint+"\n"), 0o644, 0o755)
}
