// Package leaderboard maintains the in-memory ranking of scored
// contracts and serves it as JSON. The index holds the latest score per
// contract; history lives in the store.
package leaderboard

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is a denormalized score summary for fast listing.
type Entry struct {
	Address       string    `json:"address"`
	Name          string    `json:"name,omitempty"`
	Grade         string    `json:"grade"`
	TotalScore    float64   `json:"total_score"`
	NameScore     float64   `json:"name_score"`
	ImageScore    float64   `json:"image_score"`
	LikenessScore float64   `json:"likeness_score"`
	EssenceScore  float64   `json:"essence_score"`
	ScoredAt      time.Time `json:"scored_at"`
}

// ListOptions controls filtering and sorting of leaderboard listings.
type ListOptions struct {
	Address   string  // filter by address substring (case-insensitive)
	Grade     string  // filter by exact grade
	MinScore  float64 // drop entries below this total
	SortField string  // "score", "address", "scored_at"
	SortDesc  bool
}

// Index is an in-memory store of latest scores keyed by address.
type Index struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewIndex creates an empty leaderboard index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]Entry)}
}

// Upsert records the latest score for a contract.
func (idx *Index) Upsert(e Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[strings.ToLower(e.Address)] = e
}

// Get returns the latest entry for an address.
func (idx *Index) Get(address string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[strings.ToLower(address)]
	return e, ok
}

// List returns entries matching the given options.
func (idx *Index) List(opts ListOptions) []Entry {
	idx.mu.RLock()
	var filtered []Entry
	for _, e := range idx.entries {
		if opts.Address != "" && !strings.Contains(strings.ToLower(e.Address), strings.ToLower(opts.Address)) {
			continue
		}
		if opts.Grade != "" && e.Grade != opts.Grade {
			continue
		}
		if e.TotalScore < opts.MinScore {
			continue
		}
		filtered = append(filtered, e)
	}
	idx.mu.RUnlock()

	sortEntries(filtered, opts.SortField, opts.SortDesc)
	return filtered
}

// Top returns the n highest-scoring entries.
func (idx *Index) Top(n int) []Entry {
	entries := idx.List(ListOptions{SortField: "score", SortDesc: true})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Count returns the number of ranked contracts.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func sortEntries(entries []Entry, field string, desc bool) {
	sort.Slice(entries, func(i, j int) bool {
		var less bool
		switch field {
		case "address":
			less = entries[i].Address < entries[j].Address
		case "scored_at":
			less = entries[i].ScoredAt.Before(entries[j].ScoredAt)
		default: // "score" or empty
			if entries[i].TotalScore == entries[j].TotalScore {
				// Stable ranking for equal scores.
				less = entries[i].Address < entries[j].Address
			} else {
				less = entries[i].TotalScore < entries[j].TotalScore
			}
		}
		if desc {
			return !less
		}
		return less
	})
}
