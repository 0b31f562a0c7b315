package indexer

import (
	"sort"

	"github.com/0xADE/ade-app-ctld/internal/indexer/desktop"
)

// Label formats the picker text of an entry
func Label(e desktop.Entry) string {
	if e.Comment == "" {
		return e.Name + " "
	}
	return e.Name + " - " + e.Comment
}

// BuildCandidates renders every entry of the snapshot, hidden ones
// included, sorted by label.
func BuildCandidates(snap *Snapshot) []Candidate {
	if snap == nil {
		return nil
	}

	result := make([]Candidate, 0, len(snap.Entries))
	for _, entry := range snap.Entries {
		result = append(result, Candidate{
			Label: Label(entry),
			Entry: entry,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Label < result[j].Label
	})
	return result
}

// Visible filters out candidates marked Hidden or NoDisplay
func Visible(candidates []Candidate) []Candidate {
	result := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Entry.Visible {
			result = append(result, c)
		}
	}
	return result
}

// Candidates returns the candidates of the current index
func (c *Cache) Candidates() []Candidate {
	return BuildCandidates(c.Index())
}
