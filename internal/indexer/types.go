package indexer

import (
	"time"

	"github.com/0xADE/ade-app-ctld/internal/indexer/desktop"
)

// Snapshot is one fully built application index. It is never modified
// after construction; a rebuild produces a new Snapshot.
type Snapshot struct {
	Entries map[string]desktop.Entry // Name -> entry
	Files   []string                 // Paths the index was built from, in discovery order
	Faults  []string                 // Paths of malformed files seen during the build
	BuiltAt time.Time                // When the rebuild started
}

// Get retrieves an entry by name
func (s *Snapshot) Get(name string) (desktop.Entry, bool) {
	entry, ok := s.Entries[name]
	return entry, ok
}

// Count returns the number of entries in the snapshot
func (s *Snapshot) Count() int {
	return len(s.Entries)
}

// Candidate is a selectable item handed to a picker
type Candidate struct {
	Label string
	Entry desktop.Entry
}

// Stats describes cache activity
type Stats struct {
	Rebuilds int       // Number of full rebuilds
	Parsed   int       // Total files parsed across all rebuilds
	Files    int       // Files tracked by the current snapshot
	Entries  int       // Entries in the current snapshot
	Faults   int       // Malformed files in the current snapshot
	BuiltAt  time.Time // Build time of the current snapshot
}
