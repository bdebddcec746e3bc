// Package presence supplies online/offline indicators for contacts.
// Presence is simulated data owned by the view layer; it is not part of
// the relay protocol and the core never consults it.
package presence

import "sync"

// Tracker reports whether a contact is currently online.
type Tracker interface {
	Online(contact string) bool
}

// Static is a Tracker over a fixed contact -> online map.
// Contacts missing from the map are reported offline.
type Static struct {
	mu       sync.RWMutex
	statuses map[string]bool
}

// NewStatic creates a tracker from the given statuses. The map is
// copied; the caller keeps ownership of its argument.
func NewStatic(statuses map[string]bool) *Static {
	copied := make(map[string]bool, len(statuses))
	for contact, online := range statuses {
		copied[contact] = online
	}
	return &Static{statuses: copied}
}

// Online implements Tracker.
func (s *Static) Online(contact string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses[contact]
}

// Set updates a contact's presence.
func (s *Static) Set(contact string, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[contact] = online
}
