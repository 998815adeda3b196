// Package store holds the busy flag and last error bookkeeping every store
// embeds.
package store

import (
	"sync"

	"github.com/2beens/gymclient/internal/apperrors"
)

// Status is safe for concurrent use. The busy flag is a counter so that two
// overlapping calls do not clear each other's loading state.
type Status struct {
	mu       sync.RWMutex
	inFlight int
	lastErr  string
}

// Begin marks a call as started and clears the last error. The returned func
// must be called exactly once, with the call's outcome.
func (s *Status) Begin() func(err error) {
	s.mu.Lock()
	s.inFlight++
	s.lastErr = ""
	s.mu.Unlock()

	var once sync.Once
	return func(err error) {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.inFlight--
			if err != nil {
				s.lastErr = apperrors.Message(err)
			}
		})
	}
}

// Fail records err without touching the busy flag, for checks made before any
// request is sent.
func (s *Status) Fail(err error) error {
	if err == nil {
		return nil
	}
	s.mu.Lock()
	s.lastErr = apperrors.Message(err)
	s.mu.Unlock()
	return err
}

func (s *Status) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Status) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// Error returns the last recorded user facing message, or "".
func (s *Status) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
