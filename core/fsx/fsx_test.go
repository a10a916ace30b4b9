package fsx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomicCreatesAndOverwrites(t *testing.T) {
	target := filepath.Join(t.TempDir(), "build-manifest.json")

	if err := WriteFileAtomic(target, []byte("first\n"), 0o644, 0o755); err != nil {
		t.Fatalf("first write: %v", err)
	}
	first, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read first write: %v", err)
	}
	if string(first) != "first\n" {
		t.Fatalf("unexpected first content: %q", string(first))
	}

	if err := WriteFileAtomic(target, []byte("second\n"), 0o644, 0o755); err != nil {
		t.Fatalf("second write: %v", err)
	}
	second, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read second write: %v", err)
	}
	if string(second) != "second\n" {
		t.Fatalf("unexpected second content: %q", string(second))
	}
}

func TestWriteFileAtomicMode(t *testing.T) {
	target := filepath.Join(t.TempDir(), "build-manifest.json")

	if err := WriteFileAtomic(target, []byte("{}\n"), 0o644, 0o755); err != nil {
		t.Fatalf("write file: %v", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("expected mode 0644 got %#o", info.Mode().Perm())
	}
}

func TestWriteFileAtomicCreatesParentDirectories(t *testing.T) {
	target := filepath.Join(t.TempDir(), "etc", "dudley", "build-manifest.json")

	if err := WriteFileAtomic(target, []byte("{}\n"), 0o644, 0o755); err != nil {
		t.Fatalf("write file: %v", err)
	}
	info, err := os.Stat(filepath.Dir(target))
	if err != nil {
		t.Fatalf("stat parent: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected parent directory")
	}
}

func TestWriteFileAtomicFailurePreservesExistingFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not bind root")
	}
	workDir := t.TempDir()
	target := filepath.Join(workDir, "build-manifest.json")
	if err := WriteFileAtomic(target, []byte("previous\n"), 0o644, 0o755); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	// Revoking write permission on the directory makes temp-file creation
	// fail before any rename can happen.
	if err := os.Chmod(workDir, 0o555); err != nil {
		t.Fatalf("chmod dir: %v", err)
	}
	defer func() {
		_ = os.Chmod(workDir, 0o755)
	}()

	err := WriteFileAtomic(target, []byte("next\n"), 0o644, 0o755)
	if err == nil {
		t.Fatalf("expected write failure on read-only directory")
	}
	if !strings.Contains(err.Error(), workDir) {
		t.Fatalf("expected error to name the failing path, got: %v", err)
	}

	_ = os.Chmod(workDir, 0o755)
	content, readErr := os.ReadFile(target)
	if readErr != nil {
		t.Fatalf("read preserved file: %v", readErr)
	}
	if string(content) != "previous\n" {
		t.Fatalf("expected previous content preserved, got %q", string(content))
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	workDir := t.TempDir()
	target := filepath.Join(workDir, "build-manifest.json")
	if err := WriteFileAtomic(target, []byte("{}\n"), 0o644, 0o755); err != nil {
		t.Fatalf("write file: %v", err)
	}
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Fatalf("unexpected leftover temp file: %s", entry.Name())
		}
	}
}
