package indexer

import (
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/0xADE/ade-app-ctld/internal/indexer/desktop"
)

// RootsFunc returns the search roots in precedence order
type RootsFunc func() []string

// Cache holds the last built application index and rebuilds it only when
// the discovered file set differs or a tracked file changed since the build.
type Cache struct {
	mu       sync.Mutex
	roots    RootsFunc
	parser   *desktop.Parser
	now      func() time.Time
	logger   *log.Logger
	current  *Snapshot
	rebuilds int
	parsed   int
}

// NewCache creates an empty cache. Nothing is scanned until the first Index call.
func NewCache(roots RootsFunc, parser *desktop.Parser, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{
		roots:  roots,
		parser: parser,
		now:    time.Now,
		logger: logger,
	}
}

// Index returns the current application index, rebuilding it first if the
// cached one is stale. The returned snapshot must not be modified.
func (c *Cache) Index() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.now()
	files := desktop.Discover(c.roots())
	paths := desktop.Paths(files)

	if c.valid(files, paths) {
		return c.current
	}

	result := c.parser.Parse(files)
	snap := &Snapshot{
		Entries: result.Entries,
		Files:   paths,
		Faults:  result.Faults,
		BuiltAt: start,
	}

	c.current = snap
	c.rebuilds++
	c.parsed += result.Parsed

	c.logger.Info("application index rebuilt",
		"files", len(paths),
		"entries", len(result.Entries),
		"faults", len(result.Faults),
		"took", c.now().Sub(start))

	return snap
}

func (c *Cache) valid(files []desktop.CandidateFile, paths []string) bool {
	if c.current == nil {
		return false
	}
	if !slices.Equal(paths, c.current.Files) {
		c.logger.Debug("file set changed", "was", len(c.current.Files), "now", len(paths))
		return false
	}
	for _, f := range files {
		if f.ModTime.After(c.current.BuiltAt) {
			c.logger.Debug("file modified", "path", f.Path)
			return false
		}
	}
	return true
}

// Invalidate drops the cached index so the next Index call rebuilds
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// Stats returns cache counters and a summary of the current snapshot
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Stats{
		Rebuilds: c.rebuilds,
		Parsed:   c.parsed,
	}
	if c.current != nil {
		st.Files = len(c.current.Files)
		st.Entries = len(c.current.Entries)
		st.Faults = len(c.current.Faults)
		st.BuiltAt = c.current.BuiltAt
	}
	return st
}
