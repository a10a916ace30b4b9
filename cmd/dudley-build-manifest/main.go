// dudley-build-manifest runs once per image build: it fingerprints every
// first-boot hook's dependency set, writes the validated build manifest,
// and prints name=fingerprint pairs on stdout for the build's placeholder
// substitution step. Any failure exits non-zero so the image build fails
// rather than shipping a missing or inconsistent manifest.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/joshyorko/dudley-build/core/generate"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

const defaultManifestPath = "/etc/dudley/build-manifest.json"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(arguments []string) int {
	flagSet := flag.NewFlagSet("dudley-build-manifest", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var repoRoot string
	var imageRef string
	var baseImageRef string
	var commitSHA string
	var outputPath string
	var hooksFile string
	var priorManifest string
	var eventLog string
	var logLevel string
	var showVersion bool

	flagSet.StringVar(&repoRoot, "repo-root", ".", "repository root the hook table's paths are relative to")
	flagSet.StringVar(&imageRef, "image", "", "image reference being built (required)")
	flagSet.StringVar(&baseImageRef, "base", "", "base image reference (required)")
	flagSet.StringVar(&commitSHA, "commit", "unknown", "short commit sha, or 'unknown' outside a checkout")
	flagSet.StringVar(&outputPath, "output", defaultManifestPath, "manifest output path")
	flagSet.StringVar(&hooksFile, "hooks-file", "", "hook-set yaml overriding the built-in hook table")
	flagSet.StringVar(&priorManifest, "prior", "", "previous build's manifest, for per-hook changed detection")
	flagSet.StringVar(&eventLog, "event-log", "", "jsonl build event log path")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := flagSet.Parse(arguments); err != nil {
		fmt.Fprintln(os.Stderr, "usage: dudley-build-manifest --image REF --base REF [flags]")
		flagSet.SetOutput(os.Stderr)
		flagSet.PrintDefaults()
		return 1
	}
	if showVersion {
		fmt.Println("dudley-build-manifest", version)
		return 0
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "dudley-build-manifest",
		Level:  hclog.LevelFromString(logLevel),
		Output: os.Stderr,
	})

	if imageRef == "" || baseImageRef == "" {
		logger.Error("--image and --base are required")
		return 1
	}

	hooks := generate.DefaultHooks()
	if hooksFile != "" {
		loaded, err := generate.LoadHookSet(hooksFile)
		if err != nil {
			logger.Error("invalid hook set", "path", hooksFile, "error", err)
			return 1
		}
		hooks = loaded
	}

	result, err := generate.Generate(generate.BuildContext{
		RepoRoot:          repoRoot,
		ImageRef:          imageRef,
		BaseImageRef:      baseImageRef,
		CommitSHA:         commitSHA,
		OutputPath:        outputPath,
		PriorManifestPath: priorManifest,
		EventLogPath:      eventLog,
	}, hooks)
	if err != nil {
		logger.Error("manifest generation failed", "error", err)
		return 1
	}

	for _, warning := range result.Warnings {
		logger.Warn(warning)
	}
	logger.Info("manifest written",
		"path", outputPath,
		"hooks", len(result.Fingerprints),
		"digest", result.Digest,
	)

	names := make([]string, 0, len(result.Fingerprints))
	for name := range result.Fingerprints {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s=%s\n", name, result.Fingerprints[name])
	}
	return 0
}
