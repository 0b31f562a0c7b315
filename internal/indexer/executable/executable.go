package executable

import (
	"os"
	"path/filepath"
	"strings"
)

// Lookup resolves name against the given search path the way a shell would.
// Names containing a separator are checked directly and never searched.
// Returns the resolved path and whether an executable file was found.
func Lookup(name string, path []string) (string, bool) {
	if name == "" {
		return "", false
	}

	if strings.ContainsRune(name, os.PathSeparator) {
		if isExecutableFile(name) {
			return name, true
		}
		return "", false
	}

	for _, dir := range path {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isExecutableFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// SplitPath splits a PATH-style list, dropping empty elements
func SplitPath(list string) []string {
	parts := filepath.SplitList(list)
	filtered := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	return isExecutable(info)
}

func isExecutable(info os.FileInfo) bool {
	// Check if file has execute permission for user, group, or others
	mode := info.Mode()
	return mode&0111 != 0
}
