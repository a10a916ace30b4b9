package fsx

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes content to path through a temp file in the same
// directory and an atomic rename, so readers never observe a partial file.
// Missing parent directories are created with dirMode.
func WriteFileAtomic(path string, content []byte, mode, dirMode os.FileMode) error {
	parent := filepath.Dir(path)
	base := filepath.Base(path)

	if parent != "." && parent != "" {
		if err := os.MkdirAll(parent, dirMode); err != nil {
			return fmt.Errorf("create directory %s: %w", parent, err)
		}
	}

	tempFile, err := os.CreateTemp(parent, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", parent, err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(content); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file %s: %w", tempPath, err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp file %s: %w", tempPath, err)
	}
	if err := tempFile.Chmod(mode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file %s: %w", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename temp file onto %s: %w", path, err)
	}
	cleanup = false

	syncDirectory(parent)
	return nil
}

func syncDirectory(path string) {
	if path == "" || path == "." {
		return
	}
	// #nosec G304 -- directory path is derived from an explicit caller-provided destination.
	if dirHandle, err := os.Open(path); err == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}
}
