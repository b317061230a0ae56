// Package state holds UI state shared across the screens of a session.
// Today that is only the cart-count badge.
package state

import "sync"

// Store keeps the cart count per session. The last SetCartCount wins; nothing
// is persisted.
type Store struct {
	mu     sync.RWMutex
	counts map[string]int
	subs   map[string]map[chan int]struct{}
}

func NewStore() *Store {
	return &Store{
		counts: make(map[string]int),
		subs:   make(map[string]map[chan int]struct{}),
	}
}

// SetCartCount records n and pushes it to every subscriber of the session.
func (s *Store) SetCartCount(sessionKey string, n int) {
	if n < 0 {
		n = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[sessionKey] = n
	for ch := range s.subs[sessionKey] {
		offer(ch, n)
	}
}

func (s *Store) CartCount(sessionKey string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counts[sessionKey]
}

// Subscribe returns a channel carrying the latest count, starting with the
// current one. A slow reader only ever sees the newest value. Call cancel to
// release the channel; it is closed afterwards.
func (s *Store) Subscribe(sessionKey string) (<-chan int, func()) {
	ch := make(chan int, 1)

	s.mu.Lock()
	if s.subs[sessionKey] == nil {
		s.subs[sessionKey] = make(map[chan int]struct{})
	}
	s.subs[sessionKey][ch] = struct{}{}
	ch <- s.counts[sessionKey]
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			if set := s.subs[sessionKey]; set != nil {
				delete(set, ch)
				if len(set) == 0 {
					delete(s.subs, sessionKey)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Forget drops the session's count, used when the session logs out.
func (s *Store) Forget(sessionKey string) {
	s.SetCartCount(sessionKey, 0)

	s.mu.Lock()
	delete(s.counts, sessionKey)
	s.mu.Unlock()
}

// offer replaces any unread value in ch with n. Callers hold s.mu.
func offer(ch chan int, n int) {
	select {
	case <-ch:
	default:
	}
	ch <- n
}
