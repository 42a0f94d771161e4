// Package fs is the write side of the pipeline: it resolves extracted paths
// against a target directory, refuses anything that escapes it, and writes
// the final bytes.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/radekstepan/apply-llm-changes/internal/ui"
)

// ResolveWithin joins a forward-slash relative path against root and rejects
// any result that normalizes outside of it.
func ResolveWithin(root, rel string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(rel))
	relBack, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil {
		return "", err
	}
	slash := filepath.ToSlash(relBack)
	if slash == ".." || strings.HasPrefix(slash, "../") {
		return "", fmt.Errorf("path escapes target directory: %s", rel)
	}
	return filepath.Clean(target), nil
}

// Classify determines which target paths are new vs. existing and which
// parent directories need to be created.
func Classify(targetPaths []string) (map[string]string, map[string]struct{}) {
	fileActions := make(map[string]string)
	dirsToCreate := make(map[string]struct{})

	for _, path := range targetPaths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fileActions[path] = "create"
			dir := filepath.Dir(path)
			if dir != "." && dir != "/" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					dirsToCreate[dir] = struct{}{}
				}
			}
		} else {
			fileActions[path] = "modify"
		}
	}
	return fileActions, dirsToCreate
}

// CreateDirs creates all missing parent directories, shallowest first.
func CreateDirs(dirs map[string]struct{}) error {
	if len(dirs) == 0 {
		return nil
	}
	sortedDirs := make([]string, 0, len(dirs))
	for dir := range dirs {
		sortedDirs = append(sortedDirs, dir)
	}
	sort.Strings(sortedDirs)

	for _, dir := range sortedDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", dir, err)
		}
		ui.Path("created %s", dir)
	}
	return nil
}

// WriteFile writes content to path, guaranteeing a trailing newline.
func WriteFile(path, content string) error {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
