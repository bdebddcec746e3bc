package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlapp/charla/internal/models"
	"github.com/charlapp/charla/internal/relay"
)

// Long enough that no simulated transition fires during a test unless
// the test wants it to.
const noTransitions = time.Hour

// newTestRelay starts a real relay and returns the ws:// URL to dial.
func newTestRelay(t *testing.T) string {
	t.Helper()

	hub := relay.NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(relay.NewHandler(hub).ServeWS))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newConnectedSession(t *testing.T, url string, deliveredAfter, readAfter time.Duration) *Session {
	t.Helper()

	s := NewWithDelays(url, deliveredAfter, readAfter)
	t.Cleanup(s.Close)
	require.True(t, s.WaitConnected(2*time.Second), "session never connected to test relay")
	return s
}

// waitForLen polls until a contact's thread reaches the wanted length.
func waitForLen(t *testing.T, s *Session, contact string, want int) []models.Envelope {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := s.Messages(contact); len(msgs) >= want {
			return msgs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("thread %q never reached %d messages", contact, want)
	return nil
}

func TestSendAppendsOptimisticallyAndReachesPeer(t *testing.T) {
	url := newTestRelay(t)
	alice := newConnectedSession(t, url, noTransitions, noTransitions)
	bob := newConnectedSession(t, url, noTransitions, noTransitions)

	sent, err := alice.Send("Contacto 1", "hola")
	require.NoError(t, err)
	require.NotNil(t, sent)

	// Optimistic append: present locally before any relay round trip
	local := alice.Messages("Contacto 1")
	require.Len(t, local, 1)
	assert.Equal(t, sent.ID, local[0].ID)
	assert.Equal(t, models.StatusSent, local[0].Status)

	// The relay fans it out to the peer
	got := waitForLen(t, bob, "Contacto 1", 1)
	assert.Equal(t, sent.ID, got[0].ID)
	assert.Equal(t, "hola", got[0].Text)
	assert.Equal(t, alice.UserID(), got[0].UserID)

	// And never into another thread
	assert.Empty(t, bob.Messages("Contacto 2"))
}

func TestOwnEchoIsDeduplicated(t *testing.T) {
	url := newTestRelay(t)
	alice := newConnectedSession(t, url, noTransitions, noTransitions)
	bob := newConnectedSession(t, url, noTransitions, noTransitions)

	sent, err := alice.Send("Contacto 1", "hola")
	require.NoError(t, err)

	// Wait until the broadcast has demonstrably completed
	waitForLen(t, bob, "Contacto 1", 1)
	time.Sleep(50 * time.Millisecond)

	msgs := alice.Messages("Contacto 1")
	require.Len(t, msgs, 1, "relay echo of own send must be deduplicated by id")
	assert.Equal(t, sent.ID, msgs[0].ID)
}

func TestSendEmptyTextIsNoop(t *testing.T) {
	url := newTestRelay(t)
	s := newConnectedSession(t, url, noTransitions, noTransitions)

	for _, text := range []string{"", "   ", "\n\t"} {
		msg, err := s.Send("Contacto 1", text)
		assert.NoError(t, err)
		assert.Nil(t, msg, "text %q should produce no envelope", text)
	}

	assert.Empty(t, s.Messages("Contacto 1"))
}

func TestSendWhileDisconnected(t *testing.T) {
	// Nothing listens here; the session stays in its retry loop
	s := NewWithDelays("ws://127.0.0.1:1/ws", noTransitions, noTransitions)
	t.Cleanup(s.Close)

	msg, err := s.Send("Contacto 1", "hola")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Nil(t, msg)
	assert.Empty(t, s.Messages("Contacto 1"), "rejected sends must not touch history")
}

func TestStatusLifecycleTiming(t *testing.T) {
	url := newTestRelay(t)
	s := newConnectedSession(t, url, 60*time.Millisecond, 60*time.Millisecond)

	sent, err := s.Send("Contacto 1", "hola")
	require.NoError(t, err)

	assert.Equal(t, models.StatusSent, s.Messages("Contacto 1")[0].Status)
	assert.True(t, waitForStatus(t, s.history, "Contacto 1", sent.ID, models.StatusDelivered, time.Second))
	assert.True(t, waitForStatus(t, s.history, "Contacto 1", sent.ID, models.StatusRead, time.Second))
}

func TestCloseCancelsScheduledTransitions(t *testing.T) {
	url := newTestRelay(t)
	s := NewWithDelays(url, 50*time.Millisecond, 50*time.Millisecond)
	require.True(t, s.WaitConnected(2*time.Second))

	sent, err := s.Send("Contacto 1", "hola")
	require.NoError(t, err)

	s.Close()
	time.Sleep(200 * time.Millisecond)

	msgs := s.Messages("Contacto 1")
	require.Len(t, msgs, 1)
	assert.Equal(t, sent.ID, msgs[0].ID)
	assert.Equal(t, models.StatusSent, msgs[0].Status,
		"no transition may fire after teardown")
}

func TestIngestDeduplicatesAndValidates(t *testing.T) {
	s := NewWithDelays("ws://127.0.0.1:1/ws", noTransitions, noTransitions)
	t.Cleanup(s.Close)

	msg, ok := models.NewEnvelope("peer-1", "hola")
	require.True(t, ok)
	data, err := json.Marshal(models.NewMessageEvent("Contacto 1", msg))
	require.NoError(t, err)

	s.ingest(data)
	s.ingest(data)
	assert.Len(t, s.Messages("Contacto 1"), 1, "same id twice must yield one copy")

	// Malformed events are dropped without touching history
	s.ingest([]byte("not json"))
	s.ingest([]byte(`{"type":"message","contact":"","msg":{"id":"x"}}`))
	s.ingest([]byte(`{"type":"message","contact":"Contacto 1","msg":{"id":""}}`))
	assert.Len(t, s.Messages("Contacto 1"), 1)
}

func TestUpdatesSignalHistoryChanges(t *testing.T) {
	url := newTestRelay(t)
	alice := newConnectedSession(t, url, noTransitions, noTransitions)
	bob := newConnectedSession(t, url, noTransitions, noTransitions)

	_, err := alice.Send("Contacto 1", "hola")
	require.NoError(t, err)

	select {
	case contact := <-alice.Updates():
		assert.Equal(t, "Contacto 1", contact, "sender is notified of its own append")
	case <-time.After(time.Second):
		t.Fatal("no update notification after send")
	}

	select {
	case contact := <-bob.Updates():
		assert.Equal(t, "Contacto 1", contact, "receiver is notified on ingestion")
	case <-time.After(time.Second):
		t.Fatal("no update notification after receive")
	}
}

func TestBroadcastFanOutAcrossSessions(t *testing.T) {
	url := newTestRelay(t)

	sessions := make([]*Session, 3)
	for i := range sessions {
		sessions[i] = newConnectedSession(t, url, noTransitions, noTransitions)
	}

	sent, err := sessions[0].Send("Contacto 1", "para todos")
	require.NoError(t, err)

	for _, s := range sessions {
		msgs := waitForLen(t, s, "Contacto 1", 1)
		assert.Equal(t, sent.ID, msgs[0].ID)
	}
}
