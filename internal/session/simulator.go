package session

import (
	"sync"
	"time"

	"github.com/charlapp/charla/internal/models"
)

// Production delays for the simulated delivery lifecycle.
const (
	statusDeliveredDelay = 2 * time.Second
	statusReadDelay      = 2 * time.Second
)

// StatusSimulator advances a just-sent envelope through the simulated
// delivery lifecycle: sent -> delivered -> read. The transitions are
// purely local, driven by timers; they carry no relation to actual
// relay-confirmed delivery. Each transition targets its envelope by id,
// so a newer message in the same thread is never touched by an older
// message's timers.
type StatusSimulator struct {
	history *History

	// deliveredAfter is the delay from send to "delivered";
	// readAfter is the additional delay from "delivered" to "read"
	deliveredAfter time.Duration
	readAfter      time.Duration

	// onAdvance is invoked with the contact key after each applied
	// transition, so the owner can notify its subscribers
	onAdvance func(contact string)

	mu      sync.Mutex
	timers  map[string][]*time.Timer
	stopped bool
}

// NewStatusSimulator creates a simulator over the given history.
// onAdvance may be nil.
func NewStatusSimulator(history *History, deliveredAfter, readAfter time.Duration, onAdvance func(contact string)) *StatusSimulator {
	return &StatusSimulator{
		history:        history,
		deliveredAfter: deliveredAfter,
		readAfter:      readAfter,
		onAdvance:      onAdvance,
		timers:         make(map[string][]*time.Timer),
	}
}

// Schedule starts the two one-shot transitions for a just-sent envelope.
// A transition whose target envelope is gone by the time it fires is a
// silent no-op.
func (s *StatusSimulator) Schedule(contact, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	delivered := time.AfterFunc(s.deliveredAfter, func() {
		s.advance(contact, id, models.StatusDelivered)
	})
	read := time.AfterFunc(s.deliveredAfter+s.readAfter, func() {
		s.advance(contact, id, models.StatusRead)
		s.forget(id)
	})

	s.timers[id] = []*time.Timer{delivered, read}
}

// advance applies one transition and notifies the owner if it stuck.
func (s *StatusSimulator) advance(contact, id string, status models.Status) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return
	}

	if s.history.Advance(contact, id, status) && s.onAdvance != nil {
		s.onAdvance(contact)
	}
}

// forget drops the timer bookkeeping for an envelope whose lifecycle
// has reached its terminal state.
func (s *StatusSimulator) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
}

// Stop cancels every pending transition. Called on session teardown so
// no timer outlives the session that scheduled it.
func (s *StatusSimulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for _, timers := range s.timers {
		for _, t := range timers {
			t.Stop()
		}
	}
	s.timers = make(map[string][]*time.Timer)
}
