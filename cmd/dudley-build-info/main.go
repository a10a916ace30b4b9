// dudley-build-info is the on-image display tool for the build manifest.
// With no flags it prints a human summary; --json dumps the raw manifest.
// It exits 1 when the manifest is absent, unparseable, or fails schema
// validation, so health checks can assert a well-formed image.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/joshyorko/dudley-build/core/manifest"
)

var version = "0.0.0-dev"

const defaultManifestPath = "/etc/dudley/build-manifest.json"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(arguments []string) int {
	flagSet := flag.NewFlagSet("dudley-build-info", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var jsonOutput bool
	var manifestPath string
	var showVersion bool

	flagSet.BoolVar(&jsonOutput, "json", false, "dump the raw manifest json")
	flagSet.BoolVar(&jsonOutput, "j", false, "dump the raw manifest json (shorthand)")
	flagSet.StringVar(&manifestPath, "manifest", defaultManifestPath, "manifest path")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := flagSet.Parse(arguments); err != nil {
		fmt.Fprintln(os.Stderr, "usage: dudley-build-info [--json|-j] [--manifest PATH]")
		return 1
	}
	if showVersion {
		fmt.Println("dudley-build-info", version)
		return 0
	}

	raw, err := os.ReadFile(manifestPath) // #nosec G304 -- manifest path is explicit user input.
	if err != nil {
		fmt.Fprintf(os.Stderr, "dudley-build-info: read manifest %s: %v\n", manifestPath, err)
		return 1
	}
	loaded, err := manifest.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dudley-build-info: %v\n", err)
		return 1
	}
	if err := manifest.ValidateJSONSchema(raw); err != nil {
		fmt.Fprintf(os.Stderr, "dudley-build-info: %v\n", err)
		return 1
	}

	if jsonOutput {
		_, _ = os.Stdout.Write(raw)
		return 0
	}

	digest, err := manifest.CanonicalDigest(loaded)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dudley-build-info: %v\n", err)
		return 1
	}

	fmt.Println("Dudley build information")
	fmt.Printf("  image:   %s\n", loaded.Build.Image)
	fmt.Printf("  base:    %s\n", loaded.Build.Base)
	fmt.Printf("  commit:  %s\n", loaded.Build.Commit)
	fmt.Printf("  date:    %s\n", loaded.Build.Date)
	fmt.Printf("  digest:  %s\n", digest)
	fmt.Printf("  hooks:   %d\n", len(loaded.Hooks))

	names := make([]string, 0, len(loaded.Hooks))
	for name := range loaded.Hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		descriptor := loaded.Hooks[name]
		changed := ""
		if wasChanged, ok := descriptor.Metadata["changed"].(bool); ok && wasChanged {
			changed = " (changed)"
		}
		fmt.Printf("    %-20s %s  deps=%d%s\n", name, descriptor.Version, len(descriptor.Dependencies), changed)
	}
	return 0
}
