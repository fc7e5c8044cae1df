package stream

import (
	"sync"

	"token-radar/internal/domain"
)

// Ring is a fixed-capacity buffer of candidates. When full, the oldest
// entry is overwritten. Safe for concurrent use.
type Ring struct {
	mu    sync.RWMutex
	items []domain.Candidate
	next  int // slot for the next push
	size  int
}

// NewRing creates a Ring holding at most capacity candidates.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Ring{items: make([]domain.Candidate, capacity)}
}

// Push adds c as the newest entry.
func (r *Ring) Push(c domain.Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = c
	r.next = (r.next + 1) % len(r.items)
	if r.size < len(r.items) {
		r.size++
	}
}

// Snapshot returns a copy of up to n entries, newest first.
// n <= 0 returns every entry.
func (r *Ring) Snapshot(n int) []domain.Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n <= 0 || n > r.size {
		n = r.size
	}
	out := make([]domain.Candidate, 0, n)
	idx := r.next
	for i := 0; i < n; i++ {
		idx = (idx - 1 + len(r.items)) % len(r.items)
		out = append(out, r.items[idx])
	}
	return out
}

// Len returns the number of buffered entries.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return len(r.items)
}
