package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	msg, ok := NewEnvelope("user-1", "  hola  ")
	require.True(t, ok)

	assert.Equal(t, "hola", msg.Text, "text should be trimmed")
	assert.Equal(t, "user-1", msg.UserID)
	assert.Equal(t, StatusSent, msg.Status)
	assert.NotEmpty(t, msg.Time)

	_, err := uuid.Parse(msg.ID)
	assert.NoError(t, err, "id should be a valid uuid")
}

func TestNewEnvelopeRejectsEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		_, ok := NewEnvelope("user-1", text)
		assert.False(t, ok, "text %q should be rejected", text)
	}
}

func TestNewEnvelopeUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		msg, ok := NewEnvelope("user-1", "hola")
		require.True(t, ok)
		assert.False(t, seen[msg.ID], "duplicate id %s", msg.ID)
		seen[msg.ID] = true
	}
}

func TestStatusRankOrdering(t *testing.T) {
	assert.Less(t, Status("").Rank(), StatusSent.Rank())
	assert.Less(t, StatusSent.Rank(), StatusDelivered.Rank())
	assert.Less(t, StatusDelivered.Rank(), StatusRead.Rank())
}

func TestEventValidate(t *testing.T) {
	msg, ok := NewEnvelope("user-1", "hola")
	require.True(t, ok)

	tests := []struct {
		name    string
		event   Event
		wantErr error
	}{
		{"valid", NewMessageEvent("Contacto 1", msg), nil},
		{"wrong type", Event{Type: "typing", Contact: "Contacto 1", Msg: msg}, ErrUnknownEventType},
		{"missing contact", Event{Type: EventTypeMessage, Msg: msg}, ErrMissingContact},
		{"missing message id", Event{Type: EventTypeMessage, Contact: "Contacto 1"}, ErrMissingMessageID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
