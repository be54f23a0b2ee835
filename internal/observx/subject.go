// Package observx provides a value holder whose changes can be observed.
package observx

import "sync"

// Subject holds a current value and fans every change out to subscribers.
// A new subscriber immediately receives the current value. Each subscriber
// channel has a buffer of one and keeps only the latest value: a slow reader
// never blocks Publish, it just skips intermediate values.
type Subject[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[uint64]chan T
	nextID uint64
}

func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial, subs: make(map[uint64]chan T)}
}

// Value returns the latest published value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Publish replaces the current value and notifies every subscriber.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = v
	for _, ch := range s.subs {
		offer(ch, v)
	}
}

// Subscribe returns a channel that yields the current value followed by every
// subsequent change, and a cancel func that closes the channel. Cancel is
// safe to call more than once.
func (s *Subject[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan T, 1)
	ch <- s.value
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers reports the number of active subscriptions.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// offer delivers v, dropping a stale undelivered value if necessary.
// Callers hold s.mu, so offer is the only sender on ch.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
