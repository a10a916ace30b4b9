package generate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ExtractorWallpaperCount counts image files among the hook's resolved
	// dependencies (the wallpaper hook records how many images it installs).
	ExtractorWallpaperCount = "wallpaper-count"
	// ExtractorListLines counts non-empty, non-comment lines of the hook's
	// first extra dependency file (e.g. the VS Code extension list).
	ExtractorListLines = "list-lines"
)

type extractorFunc func(resolved resolvedDeps) (map[string]any, error)

var extractors = map[string]extractorFunc{
	ExtractorWallpaperCount: extractWallpaperCount,
	ExtractorListLines:      extractListLines,
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
}

func extractWallpaperCount(resolved resolvedDeps) (map[string]any, error) {
	count := 0
	for _, path := range resolved.abs {
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			count++
		}
	}
	return map[string]any{"wallpaper_count": count}, nil
}

func extractListLines(resolved resolvedDeps) (map[string]any, error) {
	if len(resolved.extraAbs) == 0 {
		return nil, fmt.Errorf("list-lines extractor needs at least one extra dependency file")
	}
	listPath := resolved.extraAbs[0]
	// #nosec G304 -- path comes from the build's declarative hook table.
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open list file %s: %w", listPath, err)
	}
	defer func() {
		_ = file.Close()
	}()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list file %s: %w", listPath, err)
	}
	return map[string]any{"item_count": count}, nil
}
