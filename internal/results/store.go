// Package results holds the extraction results shown to each browser
// session.
//
// Every extraction request takes a [Ticket] from its session's [Store].
// Only the response to the newest ticket is kept:
// a slow response to an older request that arrives after a newer request
// started is discarded instead of overwriting the display.
package results

import (
	"sync"
	"time"

	"go.abhg.dev/extractview/internal/extract"
)

// Ticket identifies one extraction request within a [Store].
type Ticket uint64

// Snapshot is a committed extraction result.
type Snapshot struct {
	// Seq is the ticket the result was committed with.
	Seq Ticket

	// At is the time the result was committed.
	At time.Time

	Response *extract.Response
}

// Store holds the current results of one session.
// It is safe for concurrent use.
type Store struct {
	now func() time.Time

	mu       sync.Mutex
	latest   Ticket // most recently issued ticket
	pending  map[Ticket]struct{}
	current  *Snapshot
	flash    string
	lastUsed time.Time
}

// NewStore builds an empty store.
func NewStore() *Store {
	return newStore(time.Now)
}

func newStore(now func() time.Time) *Store {
	return &Store{
		now:      now,
		pending:  make(map[Ticket]struct{}),
		lastUsed: now(),
	}
}

// Begin starts a new extraction request,
// superseding any request still in flight.
//
// Callers must call Finish with the ticket on every code path.
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest++
	s.pending[s.latest] = struct{}{}
	s.touch()
	return s.latest
}

// Commit records the response to the request identified by t.
// It reports false and discards the response
// if a newer request was started or the store was cleared since.
func (s *Store) Commit(t Ticket, resp *extract.Response) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t != s.latest {
		return false
	}
	s.current = &Snapshot{Seq: t, At: s.now(), Response: resp}
	s.touch()
	return true
}

// Finish marks the request identified by t as no longer in flight.
// It is safe to call more than once.
func (s *Store) Finish(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, t)
}

// Pending reports whether any request is in flight.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending) > 0
}

// Current returns the latest committed result, or nil.
func (s *Store) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	return s.current
}

// Clear discards the current result.
// Requests in flight can no longer commit.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest++
	s.current = nil
	s.touch()
}

// Flash records a message to show the user once.
// A newer message replaces an unread one.
func (s *Store) Flash(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flash = msg
}

// TakeFlash returns the unread message, if any, and forgets it.
func (s *Store) TakeFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.flash
	s.flash = ""
	return msg
}

func (s *Store) touch() { s.lastUsed = s.now() }

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastUsed
}
