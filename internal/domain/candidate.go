package domain

import (
	"strings"
	"time"
)

// Candidate is a minimally identified, newly discovered token awaiting enrichment.
type Candidate struct {
	Identifier   string    `json:"identifier"` // mint / contract address as reported upstream
	Name         string    `json:"name"`
	Symbol       string    `json:"symbol"`
	DiscoveredAt time.Time `json:"discoveredAt"`
	Origin       Origin    `json:"originSource"`
	URI          string    `json:"uri,omitempty"` // metadata URI from the feed, if any
}

// Key returns the case-normalized identifier used as the dedup key.
func (c Candidate) Key() string {
	return NormalizeKey(c.Identifier)
}

// HasIdentifier reports whether the candidate carries a usable identifier.
func (c Candidate) HasIdentifier() bool {
	return c.Key() != ""
}

// Completeness counts populated descriptive fields. Used to pick between
// two entries that reference the same identifier.
func (c Candidate) Completeness() int {
	n := 0
	if strings.TrimSpace(c.Name) != "" {
		n++
	}
	if strings.TrimSpace(c.Symbol) != "" {
		n++
	}
	if !c.DiscoveredAt.IsZero() {
		n++
	}
	if c.URI != "" {
		n++
	}
	return n
}

// NormalizeKey trims and lower-cases an identifier.
func NormalizeKey(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
