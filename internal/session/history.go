package session

import (
	"sort"
	"sync"

	"github.com/charlapp/charla/internal/models"
)

// History holds the per-contact conversation history for one session.
// Uses in-memory storage since messages are ephemeral: each contact key
// maps to an append-only ordered sequence of envelopes. The relay keeps
// no copy; the session owns this exclusively.
type History struct {
	// chats stores messages per conversation: contact -> []Envelope
	chats map[string][]models.Envelope
	mu    sync.RWMutex
}

// NewHistory creates an empty conversation history.
func NewHistory() *History {
	return &History{
		chats: make(map[string][]models.Envelope),
	}
}

// Append adds an envelope to a contact's thread in arrival order.
// Ingestion is idempotent: an envelope whose id is already present in
// that thread is discarded and Append reports false.
func (h *History) Append(contact string, msg models.Envelope) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, existing := range h.chats[contact] {
		if existing.ID == msg.ID {
			return false
		}
	}

	h.chats[contact] = append(h.chats[contact], msg)
	return true
}

// Advance moves the status of the envelope with the given id forward.
// The status never regresses; a regressive update, an unknown id, or an
// empty thread is a no-op and Advance reports false.
func (h *History) Advance(contact, id string, status models.Status) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := h.chats[contact]
	for i := range msgs {
		if msgs[i].ID != id {
			continue
		}
		if status.Rank() <= msgs[i].Status.Rank() {
			return false
		}
		msgs[i].Status = status
		return true
	}
	return false
}

// Messages returns a snapshot copy of a contact's thread.
func (h *History) Messages(contact string) []models.Envelope {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msgs := h.chats[contact]
	result := make([]models.Envelope, len(msgs))
	copy(result, msgs)
	return result
}

// Contacts returns the contact keys that have at least one message,
// sorted for stable iteration.
func (h *History) Contacts() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	contacts := make([]string, 0, len(h.chats))
	for contact := range h.chats {
		contacts = append(contacts, contact)
	}
	sort.Strings(contacts)
	return contacts
}

// Len returns the number of messages in a contact's thread.
func (h *History) Len(contact string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.chats[contact])
}
