package desktop

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	fileSuffix = ".desktop"
	idFlatten  = "-"
)

// openFile opens files for the readability check
var openFile = os.Open

// CandidateFile is a desktop file accepted by Discover
type CandidateFile struct {
	ID      string    // Desktop file ID, unique within one discovery pass
	Path    string    // Full path to the .desktop file
	ModTime time.Time // Modification time at discovery
}

// Discover walks roots in precedence order and returns the readable desktop
// files found under them. The first file seen for a desktop file ID wins,
// later ones are dropped. Missing roots are skipped. The result order is
// root order, then lexical walk order within a root.
func Discover(roots []string) []CandidateFile {
	seen := make(map[string]struct{})
	var files []CandidateFile

	for _, root := range roots {
		files = discoverRoot(root, seen, files)
	}
	return files
}

// Paths returns the file paths of files in order
func Paths(files []CandidateFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func discoverRoot(root string, seen map[string]struct{}, files []CandidateFile) []CandidateFile {
	// Walk does not descend into a symlinked root
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return files
	}

	_ = filepath.Walk(resolved, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		if !strings.HasSuffix(path, fileSuffix) {
			return nil
		}

		rel, err := filepath.Rel(resolved, path)
		if err != nil {
			return nil
		}
		id := FileID(rel)
		if _, dup := seen[id]; dup {
			return nil
		}

		// Stat follows symlinked entries so ModTime is the target's
		st, ok := readable(path)
		if !ok {
			return nil
		}

		seen[id] = struct{}{}
		files = append(files, CandidateFile{
			ID:      id,
			Path:    path,
			ModTime: st.ModTime(),
		})
		return nil
	})
	return files
}

// FileID flattens a path relative to its search root into a desktop file ID
func FileID(rel string) string {
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", idFlatten)
}

func readable(path string) (os.FileInfo, bool) {
	file, err := openFile(path)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	st, err := file.Stat()
	if err != nil || st.IsDir() {
		return nil, false
	}
	return st, true
}
