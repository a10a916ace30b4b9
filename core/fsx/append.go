package fsx

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	appendLockTimeout    = 30 * time.Second
	appendLockRetry      = 10 * time.Millisecond
	appendLockStaleAfter = 2 * time.Minute
)

// AppendLineLocked appends exactly one line to a file with a cross-process
// lock. The caller provides raw bytes for one record; a trailing newline is
// added and the file is fsynced before returning. Used for JSONL event
// trails that hooks and the build generator append to independently.
func AppendLineLocked(path string, line []byte, mode os.FileMode) error {
	cleanPath := filepath.Clean(path)
	parent := filepath.Dir(cleanPath)
	if parent != "." && parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("create append directory %s: %w", parent, err)
		}
	}

	payload := make([]byte, 0, len(line)+1)
	payload = append(payload, line...)
	payload = append(payload, '\n')

	if err := withAppendFileLock(cleanPath, func() error {
		// #nosec G304 -- append path is an explicit caller-provided log destination.
		file, openErr := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, mode)
		if openErr != nil {
			return fmt.Errorf("open append file %s: %w", cleanPath, openErr)
		}
		defer func() {
			_ = file.Close()
		}()
		if _, writeErr := file.Write(payload); writeErr != nil {
			return fmt.Errorf("append file line: %w", writeErr)
		}
		if syncErr := file.Sync(); syncErr != nil {
			return fmt.Errorf("sync append file: %w", syncErr)
		}
		return nil
	}); err != nil {
		return err
	}

	if parent != "." && parent != "" {
		syncDirectory(parent)
	}
	return nil
}

func withAppendFileLock(path string, fn func() error) error {
	lockPath := path + ".lock"
	start := time.Now()
	for {
		// #nosec G304 -- lock path is derived from the append path.
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_ = lockFile.Close()
			defer func() {
				_ = os.Remove(lockPath)
			}()
			return fn()
		}
		if !os.IsExist(err) {
			return fmt.Errorf("acquire append lock %s: %w", lockPath, err)
		}
		if isStaleAppendLock(lockPath, time.Now().UTC()) {
			_ = os.Remove(lockPath)
			continue
		}
		if time.Since(start) >= appendLockTimeout {
			return fmt.Errorf("append lock timeout on %s", lockPath)
		}
		time.Sleep(appendLockRetry)
	}
}

// A login session killed mid-append can leave its lock behind; recover it
// once the lock file has clearly outlived any plausible writer.
func isStaleAppendLock(lockPath string, now time.Time) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}
	return now.Sub(info.ModTime().UTC()) > appendLockStaleAfter
}
