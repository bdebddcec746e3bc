package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/charlapp/charla/internal/models"
	"github.com/charlapp/charla/internal/presence"
	"github.com/charlapp/charla/internal/session"
)

// historyChangedMsg signals that a contact's thread was updated.
type historyChangedMsg struct {
	contact string
}

// connTickMsg drives the periodic connection-state refresh.
type connTickMsg struct{}

// ChatModel is the main chat view: a contact rail, the selected
// conversation, and a single-line input that sends on Enter.
type ChatModel struct {
	session  *session.Session
	tracker  presence.Tracker
	contacts []string
	selected int

	viewport     viewport.Model
	input        textinput.Model
	connected    bool
	err          error
	windowWidth  int
	windowHeight int
}

// NewChatModel creates the chat view over an already-running session.
// The initial contacts seed the rail; threads discovered from inbound
// messages are appended as they appear.
func NewChatModel(sess *session.Session, tracker presence.Tracker, contacts []string) ChatModel {
	vp := viewport.New(80, 20)

	ti := textinput.New()
	ti.Placeholder = "Escribe un mensaje..."
	ti.CharLimit = 1000
	ti.Focus()

	return ChatModel{
		session:      sess,
		tracker:      tracker,
		contacts:     append([]string{}, contacts...),
		viewport:     vp,
		input:        ti,
		connected:    sess.Connected(),
		windowWidth:  80,
		windowHeight: 24,
	}
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForUpdate(), connTick())
}

// waitForUpdate blocks on the session's history-change channel.
func (m ChatModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		contact, ok := <-m.session.Updates()
		if !ok {
			return nil
		}
		return historyChangedMsg{contact: contact}
	}
}

func connTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return connTickMsg{}
	})
}

func (m ChatModel) currentContact() string {
	if len(m.contacts) == 0 {
		return ""
	}
	return m.contacts[m.selected]
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height

		headerHeight := 3
		inputHeight := 2
		helpHeight := 1
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - headerHeight - inputHeight - helpHeight
		m.input.Width = msg.Width - 6

		m.updateViewportContent()
		return m, nil

	case historyChangedMsg:
		if !m.hasContact(msg.contact) {
			m.contacts = append(m.contacts, msg.contact)
		}
		if msg.contact == m.currentContact() {
			m.updateViewportContent()
			m.viewport.GotoBottom()
		}
		return m, m.waitForUpdate()

	case connTickMsg:
		m.connected = m.session.Connected()
		return m, connTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab":
			if len(m.contacts) > 0 {
				m.selected = (m.selected + 1) % len(m.contacts)
				m.err = nil
				m.updateViewportContent()
				m.viewport.GotoBottom()
			}
			return m, nil

		case "shift+tab":
			if len(m.contacts) > 0 {
				m.selected = (m.selected + len(m.contacts) - 1) % len(m.contacts)
				m.err = nil
				m.updateViewportContent()
				m.viewport.GotoBottom()
			}
			return m, nil

		case "enter":
			_, err := m.session.Send(m.currentContact(), m.input.Value())
			if errors.Is(err, session.ErrNotConnected) {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.input.Reset()
			m.updateViewportContent()
			m.viewport.GotoBottom()
			return m, nil

		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd

		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m ChatModel) hasContact(contact string) bool {
	for _, c := range m.contacts {
		if c == contact {
			return true
		}
	}
	return false
}

func (m *ChatModel) updateViewportContent() {
	contact := m.currentContact()
	messages := m.session.Messages(contact)
	if len(messages) == 0 {
		m.viewport.SetContent(normalStyle.Render("  Sin mensajes todavía."))
		return
	}

	wrapWidth := m.viewport.Width
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	var content strings.Builder
	for i, msg := range messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.UserID == m.session.UserID() {
			meta := messageMetaStyle.Render(fmt.Sprintf("%s %s", msg.Time, statusChecks(msg.Status)))
			text := messageFromMeStyle.Render(wordwrap.String(msg.Text, wrapWidth-10))
			content.WriteString(lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth).Render(text) + "\n")
			content.WriteString(lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth).Render(meta) + "\n")
		} else {
			meta := messageMetaStyle.Render(msg.Time)
			text := messageFromOtherStyle.Render(wordwrap.String(msg.Text, wrapWidth-10))
			content.WriteString(text + "\n")
			content.WriteString(meta + "\n")
		}
	}

	m.viewport.SetContent(content.String())
}

// statusChecks renders the delivery ticks the way the chat window shows
// them: one check when sent, two when delivered, highlighted when read.
func statusChecks(status models.Status) string {
	switch status {
	case models.StatusSent:
		return "✓"
	case models.StatusDelivered:
		return "✓✓"
	case models.StatusRead:
		return readCheckStyle.Render("✓✓")
	default:
		return ""
	}
}

func (m ChatModel) View() string {
	var s strings.Builder

	contact := m.currentContact()
	header := titleStyle.Render(contact)
	if m.tracker != nil {
		if m.tracker.Online(contact) {
			header += "  " + onlineStyle.Render("● en línea")
		} else {
			header += "  " + offlineStyle.Render("○ desconectado")
		}
	}
	if !m.connected {
		header += "  " + errorStyle.Render("sin conexión al servidor")
	}
	s.WriteString(header + "\n")

	s.WriteString(m.contactRail() + "\n\n")
	s.WriteString(m.viewport.View() + "\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	s.WriteString(m.input.View() + "\n")
	s.WriteString(helpStyle.Render("enter: enviar • tab: cambiar contacto • esc: salir"))

	return s.String()
}

// contactRail renders the horizontal contact switcher.
func (m ChatModel) contactRail() string {
	parts := make([]string, 0, len(m.contacts))
	for i, contact := range m.contacts {
		if i == m.selected {
			parts = append(parts, selectedStyle.Render("["+contact+"]"))
		} else {
			parts = append(parts, normalStyle.Render(contact))
		}
	}
	return strings.Join(parts, "  ")
}
