// Package handlers implements the HTTP API handlers.
package handlers

import (
	"sync"

	"github.com/wonny/sectorlag/internal/engine"
)

// ResultStore holds the latest scan result and guards against concurrent
// scans. All API reads go through it.
type ResultStore struct {
	mu      sync.RWMutex
	latest  *engine.Result
	running bool
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// SetLatest replaces the published result.
func (s *ResultStore) SetLatest(r *engine.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = r
}

// Latest returns the published result, or nil before the first scan.
func (s *ResultStore) Latest() *engine.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// TryBegin marks a scan as running. Returns false if one already is.
func (s *ResultStore) TryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// End clears the running flag.
func (s *ResultStore) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Running reports whether a scan is in flight.
func (s *ResultStore) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
