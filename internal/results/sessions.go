package results

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// Sessions maps session IDs to their stores.
// It is safe for concurrent use.
type Sessions struct {
	// TTL after which an idle session is dropped by Sweep.
	// Defaults to DefaultTTL.
	TTL time.Duration

	now func() time.Time

	mu     sync.Mutex
	stores map[string]*Store
}

func (ss *Sessions) clock() func() time.Time {
	if ss.now == nil {
		return time.Now
	}
	return ss.now
}

// Get returns the store for an existing session.
func (ss *Sessions) Get(id string) (*Store, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.stores[id]
	return s, ok
}

// New starts a session with an empty store.
func (ss *Sessions) New() (string, *Store) {
	id := uuid.NewString()
	s := newStore(ss.clock())

	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.stores == nil {
		ss.stores = make(map[string]*Store)
	}
	ss.stores[id] = s
	return id, s
}

// Len reports the number of live sessions.
func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	return len(ss.stores)
}

// Sweep drops sessions idle for longer than the TTL
// and reports how many were dropped.
func (ss *Sessions) Sweep() int {
	ttl := ss.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cutoff := ss.clock()().Add(-ttl)

	ss.mu.Lock()
	defer ss.mu.Unlock()

	var dropped int
	for id, s := range ss.stores {
		if s.idleSince().Before(cutoff) {
			delete(ss.stores, id)
			dropped++
		}
	}
	return dropped
}
