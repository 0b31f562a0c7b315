package desktop

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/0xADE/ade-app-ctld/internal/indexer/executable"
)

const (
	entryHeader     = "[Desktop Entry]"
	applicationType = "Application"
)

// Rejections reported by ParseEntry and ParseFile
var (
	ErrNoEntrySection  = errors.New("missing [Desktop Entry] section")
	ErrNotApplication  = errors.New("type is not Application")
	ErrMissingName     = errors.New("missing Name")
	ErrMissingExec     = errors.New("missing Exec")
	ErrTryExecNotFound = errors.New("TryExec not found")
)

// Entry represents a parsed .desktop file
type Entry struct {
	ID         string   // Desktop file ID
	Path       string   // Path to .desktop file
	Name       string   // Display name, unique key of the index
	Exec       string   // Raw Exec command, field codes included
	Comment    string   // Hint text, empty when absent
	TryExec    string   // Probe executable, empty when absent
	Terminal   bool     // Whether to run in terminal
	Categories []string // Application categories
	Visible    bool     // False when Hidden or NoDisplay is set
}

// IsFault reports whether err marks a malformed file rather than one that
// is legitimately not launchable.
func IsFault(err error) bool {
	return errors.Is(err, ErrNoEntrySection) || errors.Is(err, ErrMissingName)
}

// ParseEntry extracts an application entry from the [Desktop Entry]
// section of data. Keys outside that section are never read. TryExec is
// captured but not resolved.
func ParseEntry(data []byte) (Entry, error) {
	lines, ok := entrySection(string(data))
	if !ok {
		return Entry{}, ErrNoEntrySection
	}
	fields := sectionFields(lines)

	entry := Entry{
		Visible: !isTrue(fields["Hidden"]) && !isTrue(fields["NoDisplay"]),
	}

	if fields["Type"] != applicationType {
		return Entry{}, ErrNotApplication
	}

	entry.Name = fields["Name"]
	if entry.Name == "" {
		return Entry{}, ErrMissingName
	}

	entry.Comment = fields["Comment"]

	entry.Exec = fields["Exec"]
	if entry.Exec == "" {
		return Entry{}, ErrMissingExec
	}

	entry.TryExec = fields["TryExec"]
	entry.Terminal = isTrue(fields["Terminal"])
	entry.Categories = splitList(fields["Categories"])

	return entry, nil
}

// entrySection returns the lines between the [Desktop Entry] header and the
// next group header or end of input.
func entrySection(data string) ([]string, bool) {
	lines := strings.Split(data, "\n")
	start := -1
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if !isGroupHeader(line) {
			continue
		}
		if start >= 0 {
			return lines[start:i], true
		}
		if line == entryHeader {
			start = i + 1
		}
	}
	if start < 0 {
		return nil, false
	}
	return lines[start:], true
}

// sectionFields collects unlocalized Key=Value pairs. The first occurrence
// of a key wins.
func sectionFields(lines []string) map[string]string {
	fields := make(map[string]string)
	for _, line := range lines {
		line = strings.TrimSpace(line)

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		// Name[de]=... and friends
		if strings.ContainsRune(key, '[') {
			continue
		}
		if _, dup := fields[key]; dup {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields
}

func isGroupHeader(line string) bool {
	return strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")
}

func isTrue(value string) bool {
	return strings.ToLower(value) == "true"
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	// Lists are semicolon-separated
	items := strings.Split(value, ";")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// Parser turns candidate files into application entries
type Parser struct {
	searchPath []string
	logger     *log.Logger
}

// ParseResult is the outcome of one batch parse
type ParseResult struct {
	Entries map[string]Entry // Name -> entry
	Faults  []string         // Paths of malformed files
	Parsed  int              // Number of files read
}

// NewParser creates a parser that resolves TryExec against searchPath
func NewParser(searchPath []string, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{
		searchPath: searchPath,
		logger:     logger,
	}
}

// ParseFile parses a single .desktop file
func (p *Parser) ParseFile(file CandidateFile) (Entry, error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", file.Path, err)
	}

	entry, err := ParseEntry(data)
	if err != nil {
		return Entry{}, err
	}

	if entry.TryExec != "" {
		if _, ok := executable.Lookup(entry.TryExec, p.searchPath); !ok {
			return Entry{}, ErrTryExecNotFound
		}
	}

	entry.ID = file.ID
	entry.Path = file.Path
	return entry, nil
}

// Parse parses every file independently. A file that fails never affects
// the others. When two files declare the same Name the later one wins.
func (p *Parser) Parse(files []CandidateFile) ParseResult {
	result := ParseResult{
		Entries: make(map[string]Entry, len(files)),
	}

	for _, file := range files {
		result.Parsed++
		entry, err := p.ParseFile(file)
		if err != nil {
			p.report(file, err)
			if IsFault(err) {
				result.Faults = append(result.Faults, file.Path)
			}
			continue
		}

		if prev, ok := result.Entries[entry.Name]; ok {
			p.logger.Debug("entry name collision", "name", entry.Name, "previous", prev.Path, "path", entry.Path)
		}
		result.Entries[entry.Name] = entry
	}

	return result
}

func (p *Parser) report(file CandidateFile, err error) {
	switch {
	case errors.Is(err, ErrNoEntrySection):
		p.logger.Warn("skipping desktop file", "path", file.Path, "err", err)
	case errors.Is(err, ErrMissingName):
		p.logger.Error("malformed desktop file", "path", file.Path, "err", err)
	default:
		p.logger.Debug("skipping desktop file", "path", file.Path, "reason", err)
	}
}
