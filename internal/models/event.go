package models

import "errors"

// EventTypeMessage is the only event type the relay understands.
const EventTypeMessage = "message"

// Validation errors for inbound events. Malformed events are discarded
// and logged, never fatal.
var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingContact   = errors.New("event missing contact")
	ErrMissingMessageID = errors.New("event missing message id")
)

// Event is the wire frame exchanged over the relay connection: a typed
// envelope carrying the destination thread key and the message itself.
type Event struct {
	// Type discriminates the frame; only "message" is defined
	Type string `json:"type"`

	// Contact is the conversation thread key the message belongs to.
	// The relay does not route by it; it is opaque fan-out payload.
	Contact string `json:"contact"`

	// Msg is the message envelope, forwarded unmodified
	Msg Envelope `json:"msg"`
}

// NewMessageEvent wraps an envelope for transmission to the relay.
func NewMessageEvent(contact string, msg Envelope) Event {
	return Event{
		Type:    EventTypeMessage,
		Contact: contact,
		Msg:     msg,
	}
}

// Validate checks the minimal shape both relay and client require
// before accepting an event. Anything failing here is dropped.
func (e Event) Validate() error {
	if e.Type != EventTypeMessage {
		return ErrUnknownEventType
	}
	if e.Contact == "" {
		return ErrMissingContact
	}
	if e.Msg.ID == "" {
		return ErrMissingMessageID
	}
	return nil
}
