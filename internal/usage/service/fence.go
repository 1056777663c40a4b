package service

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// fetchFence hands out a monotonic sequence per customer so that a slow
// provider response can be detected as stale: only the holder of the
// latest sequence is allowed to write the cache.
type fetchFence struct {
	mu  sync.Mutex
	seq map[snowflake.ID]uint64
}

func newFetchFence() *fetchFence {
	return &fetchFence{seq: make(map[snowflake.ID]uint64)}
}

// Begin registers a new fetch for the customer and returns its sequence.
func (f *fetchFence) Begin(customerID snowflake.ID) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq[customerID]++
	return f.seq[customerID]
}

// IsCurrent reports whether seq is still the latest fetch for the customer.
func (f *fetchFence) IsCurrent(customerID snowflake.ID, seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq[customerID] == seq
}
