package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Stamp records when a cached value was last refreshed and answers whether it
// is still within its time-to-live.
type Stamp struct {
	clock clockwork.Clock
	ttl   time.Duration
	at    time.Time
	valid bool
	gen   uint64
	mu    sync.Mutex
}

// NewStamp returns an invalid stamp with the given TTL. A nil clock uses the real clock.
func NewStamp(clock clockwork.Clock, ttl time.Duration) *Stamp {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Stamp{clock: clock, ttl: ttl}
}

// Touch marks the value as refreshed now.
func (s *Stamp) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.at = s.clock.Now()
	s.valid = true
}

// TouchIf marks the value as refreshed only when no Invalidate happened since
// gen was read. A load captures Generation before it starts and calls TouchIf
// when it finishes; false means its result is outdated and must be dropped.
func (s *Stamp) TouchIf(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.at = s.clock.Now()
	s.valid = true
	return true
}

// Generation returns a counter bumped by every Invalidate.
func (s *Stamp) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Invalidate forces the next Fresh call to report false and outdates every
// generation read before it.
func (s *Stamp) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = false
	s.gen++
}

// Fresh reports whether Touch was called less than TTL ago and not invalidated since.
func (s *Stamp) Fresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid && s.clock.Since(s.at) < s.ttl
}

// LastRefresh returns the time of the last Touch and whether the stamp is valid.
func (s *Stamp) LastRefresh() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.at, s.valid
}

func (s *Stamp) TTL() time.Duration {
	return s.ttl
}
