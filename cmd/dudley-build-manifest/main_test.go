package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshyorko/dudley-build/internal/testutil"
)

func writeBuildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "build_files/user-hooks/10-wallpaper.sh"),
		[]byte("#!/usr/bin/env bash\n"))
	testutil.WriteFile(t, filepath.Join(root, "build_files/user-hooks/20-vscode-extensions.sh"),
		[]byte("#!/usr/bin/env bash\n"))
	testutil.WriteFile(t, filepath.Join(root, "build_files/user-hooks/30-holotree-init.sh"),
		[]byte("#!/usr/bin/env bash\n"))
	testutil.WriteFile(t, filepath.Join(root, "assets/wallpapers/dark.png"), []byte("png"))
	testutil.WriteFile(t, filepath.Join(root, "assets/wallpapers/light.png"), []byte("png2"))
	testutil.WriteFile(t, filepath.Join(root, "build_files/vscode-extensions.list"),
		[]byte("golang.go\nms-python.python\n"))
	return root
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	previous := os.Stdout
	readEnd, writeEnd, err := os.Pipe()
	if err != nil {
		t.Fatalf("create pipe: %v", err)
	}
	os.Stdout = writeEnd
	defer func() {
		os.Stdout = previous
	}()

	done := make(chan string, 1)
	go func() {
		captured, _ := io.ReadAll(readEnd)
		done <- string(captured)
	}()

	fn()

	_ = writeEnd.Close()
	os.Stdout = previous
	return <-done
}

func TestRunGeneratesManifestAndPrintsFingerprintPairs(t *testing.T) {
	root := writeBuildTree(t)
	outputPath := filepath.Join(t.TempDir(), "build-manifest.json")

	var exitCode int
	stdout := captureStdout(t, func() {
		exitCode = run([]string{
			"--repo-root", root,
			"--image", "ghcr.io/example/img:latest",
			"--base", "ghcr.io/ublue-os/bluefin-dx:stable",
			"--commit", "a3f2c1b",
			"--output", outputPath,
		})
	})
	if exitCode != 0 {
		t.Fatalf("expected exit 0, got %d", exitCode)
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Fatalf("expected manifest written: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 fingerprint pairs, got %d:\n%s", len(lines), stdout)
	}
	for _, line := range lines {
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 || len(parts[1]) != 8 {
			t.Fatalf("malformed fingerprint pair: %q", line)
		}
	}
	if !strings.HasPrefix(lines[0], "holotree-init=") {
		t.Fatalf("expected sorted pairs starting with holotree-init, got %q", lines[0])
	}
}

func TestRunRequiresImageAndBase(t *testing.T) {
	if exitCode := run([]string{"--image", "only-image"}); exitCode != 1 {
		t.Fatalf("expected exit 1 without --base, got %d", exitCode)
	}
	if exitCode := run([]string{"--base", "only-base"}); exitCode != 1 {
		t.Fatalf("expected exit 1 without --image, got %d", exitCode)
	}
}

func TestRunFailsOnMissingHookScript(t *testing.T) {
	root := writeBuildTree(t)
	if err := os.Remove(filepath.Join(root, "build_files/user-hooks/10-wallpaper.sh")); err != nil {
		t.Fatalf("remove script: %v", err)
	}
	outputPath := filepath.Join(t.TempDir(), "build-manifest.json")
	exitCode := run([]string{
		"--repo-root", root,
		"--image", "img", "--base", "base",
		"--output", outputPath,
	})
	if exitCode != 1 {
		t.Fatalf("expected exit 1, got %d", exitCode)
	}
	if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
		t.Fatal("no manifest may exist after a failed build")
	}
}

func TestRunRejectsBadHookSetFile(t *testing.T) {
	root := writeBuildTree(t)
	hooksFile := filepath.Join(t.TempDir(), "hooks.yaml")
	testutil.WriteFile(t, hooksFile, []byte("hooks:\n  - name: 'bad name!'\n    script: a.sh\n"))
	exitCode := run([]string{
		"--repo-root", root,
		"--image", "img", "--base", "base",
		"--output", filepath.Join(t.TempDir(), "m.json"),
		"--hooks-file", hooksFile,
	})
	if exitCode != 1 {
		t.Fatalf("expected exit 1 for invalid hook set, got %d", exitCode)
	}
}

func TestRunVersionFlag(t *testing.T) {
	stdout := captureStdout(t, func() {
		if exitCode := run([]string{"--version"}); exitCode != 0 {
			t.Errorf("expected exit 0, got %d", exitCode)
		}
	})
	if !strings.Contains(stdout, "dudley-build-manifest") {
		t.Fatalf("unexpected version output: %q", stdout)
	}
}
