package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the simulated delivery state of a locally sent message.
// It only ever moves forward: sent -> delivered -> read. It is
// meaningless on messages received from a peer and may be empty there.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// Rank returns the position of the status in the delivery sequence.
// Unknown or empty statuses rank below "sent" so they never block an update.
func (s Status) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	default:
		return 0
	}
}

// Envelope is the unit of chat data exchanged between clients.
// The relay forwards it untouched; only the sending client ever mutates
// it, and only its Status field.
type Envelope struct {
	// ID is the unique identifier for this message, assigned by the
	// sender at creation time. It is the sole deduplication key.
	ID string `json:"id"`

	// UserID identifies the originating session, stable for the
	// session's lifetime
	UserID string `json:"userId"`

	// Text is the message body
	Text string `json:"text"`

	// Time is a display-formatted send timestamp (hour:minute).
	// Not authoritative; ordering is insertion order only.
	Time string `json:"time"`

	// Status is only present on sender-authored envelopes
	Status Status `json:"status,omitempty"`
}

// NewEnvelope builds an envelope for a message about to be sent.
// Text is trimmed; ok is false (and the envelope unusable) when the
// trimmed text is empty.
func NewEnvelope(senderID, text string) (Envelope, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Envelope{}, false
	}

	return Envelope{
		ID:     uuid.New().String(),
		UserID: senderID,
		Text:   text,
		Time:   time.Now().Format("15:04"),
		Status: StatusSent,
	}, true
}
