package session

import (
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/charlapp/charla/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned by Send while the relay link is down.
// Sends are rejected rather than queued; the reconnect loop restores
// the link in the background.
var ErrNotConnected = errors.New("not connected to relay")

const (
	// Reconnect backoff bounds
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second

	// Buffered history-change notifications; the channel is lossy and
	// consumers re-read the whole thread on each signal
	updateBuffer = 64
)

// Session is one client's identity and connection to the relay.
// It owns its conversation history exclusively, keeps a single logical
// connection open for its lifetime (redialing as needed), and drives
// the delivery status simulator for messages it sends.
type Session struct {
	userID   string
	relayURL string

	history *History
	sim     *StatusSimulator
	updates chan string

	// mu guards conn; writes to the socket go through it as well
	mu   sync.Mutex
	conn *websocket.Conn

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a session with the production status delays and starts
// its connection loop. The sender identity is assigned here and lives
// exactly as long as the session.
func New(relayURL string) *Session {
	return NewWithDelays(relayURL, statusDeliveredDelay, statusReadDelay)
}

// NewWithDelays creates a session with custom simulator delays.
func NewWithDelays(relayURL string, deliveredAfter, readAfter time.Duration) *Session {
	s := &Session{
		userID:   uuid.New().String(),
		relayURL: relayURL,
		history:  NewHistory(),
		updates:  make(chan string, updateBuffer),
		closed:   make(chan struct{}),
	}
	s.sim = NewStatusSimulator(s.history, deliveredAfter, readAfter, s.notify)

	go s.run()
	return s
}

// UserID returns the session's sender identity.
func (s *Session) UserID() string {
	return s.userID
}

// Send constructs an envelope for the given contact thread, appends it
// to local history before any network I/O, transmits it to the relay,
// and schedules the simulated delivery transitions.
//
// Text that trims to empty is a no-op: no envelope, no transmission,
// no history mutation, nil error. While disconnected, Send returns
// ErrNotConnected without touching history.
func (s *Session) Send(contact, text string) (*models.Envelope, error) {
	msg, ok := models.NewEnvelope(s.userID, text)
	if !ok {
		return nil, nil
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	// Optimistic append: there is no acknowledgment to wait for
	s.history.Append(contact, msg)
	s.notify(contact)

	event := models.NewMessageEvent(contact, msg)
	s.mu.Lock()
	err := conn.WriteJSON(event)
	s.mu.Unlock()
	if err != nil {
		// Fire-and-forget: the message stays in local history and the
		// read loop will notice the dead connection
		log.Printf("[Session] Send failed: %v", err)
	}

	s.sim.Schedule(contact, msg.ID)
	return &msg, nil
}

// Messages returns a snapshot of the conversation with a contact.
func (s *Session) Messages(contact string) []models.Envelope {
	return s.history.Messages(contact)
}

// Contacts returns the contact keys with at least one message.
func (s *Session) Contacts() []string {
	return s.history.Contacts()
}

// Updates returns the history-changed notification channel. Each value
// is the contact key whose thread changed. Notifications are dropped
// when the consumer lags; re-read the thread on each signal.
func (s *Session) Updates() <-chan string {
	return s.updates
}

// Connected reports whether the relay link is currently up.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// WaitConnected blocks until the relay link is up or the timeout
// elapses, and reports which happened.
func (s *Session) WaitConnected(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Connected() {
			return true
		}
		select {
		case <-s.closed:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
	return s.Connected()
}

// Close tears the session down: the reconnect loop stops, the
// connection closes, and every pending status transition is cancelled
// so no timer references the dead session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.sim.Stop()

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.mu.Unlock()

		log.Printf("[Session] Session %s closed", s.userID)
	})
}

// run keeps one connection to the relay open for the session lifetime,
// redialing with capped exponential backoff after failures.
func (s *Session) run() {
	backoff := initialBackoff
	for {
		select {
		case <-s.closed:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(s.dialURL(), nil)
		if err != nil {
			log.Printf("[Session] Relay unreachable, retrying in %v: %v", backoff, err)
			select {
			case <-s.closed:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = initialBackoff
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		log.Printf("[Session] Connected to relay as %s", s.userID)

		s.readLoop(conn)

		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
	}
}

// dialURL appends the session identity to the relay URL so relay logs
// can correlate connections.
func (s *Session) dialURL() string {
	u, err := url.Parse(s.relayURL)
	if err != nil {
		return s.relayURL
	}
	q := u.Query()
	q.Set("session", s.userID)
	u.RawQuery = q.Encode()
	return u.String()
}

// readLoop consumes events from one connection until it dies.
func (s *Session) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closed:
			default:
				log.Printf("[Session] Connection lost: %v", err)
			}
			return
		}
		s.ingest(data)
	}
}

// ingest handles one inbound event from the relay. Malformed events are
// discarded and logged; duplicate envelope ids (including the echo of
// our own sends) are silently deduplicated.
func (s *Session) ingest(data []byte) {
	var event models.Event
	if err := json.Unmarshal(data, &event); err != nil {
		log.Printf("[Session] Discarding unparseable event: %v", err)
		return
	}
	if err := event.Validate(); err != nil {
		log.Printf("[Session] Discarding malformed event: %v", err)
		return
	}

	if s.history.Append(event.Contact, event.Msg) {
		s.notify(event.Contact)
	}
}

// notify signals a history change without ever blocking the caller.
func (s *Session) notify(contact string) {
	select {
	case s.updates <- contact:
	default:
	}
}
