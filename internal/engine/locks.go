package engine

import "sync"

// lockTable serializes every mutating operation on a given auction while
// letting distinct auctions proceed in parallel. Keys are auction ids, plus
// an "item:" namespace used to serialize claiming an item for a new
// auction. One mutex per key, created on first use; entries are never
// evicted, which is bounded by the number of records the process has
// touched. A single global lock here would serialize the bidding hot path
// across unrelated auctions.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the key's mutex and returns the unlock function. The table
// mutex is held only for the map lookup, never across the critical section.
func (t *lockTable) acquire(key string) func() {
	t.mu.Lock()
	m, ok := t.locks[key]
	if !ok {
		m = &sync.Mutex{}
		t.locks[key] = m
	}
	t.mu.Unlock()

	m.Lock()
	return m.Unlock
}
