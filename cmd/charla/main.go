package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charlapp/charla/internal/config"
	"github.com/charlapp/charla/internal/presence"
	"github.com/charlapp/charla/internal/session"
	"github.com/charlapp/charla/internal/ui"
)

const version = "1.0.0"

// Default contacts and their simulated presence. Presence is view-layer
// fixture data; the relay protocol knows nothing about it.
var defaultContacts = []string{"Contacto 1", "Contacto 2", "Contacto 3"}

var defaultPresence = map[string]bool{
	"Contacto 1": true,
	"Contacto 2": false,
	"Contacto 3": true,
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "-v", "--version":
			fmt.Printf("charla v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		default:
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	cfg := config.Load()

	sess := session.New(cfg.RelayURL)
	defer sess.Close()

	// Don't block startup on the relay; the session keeps retrying in
	// the background and the UI shows the connection state
	sess.WaitConnected(2 * time.Second)

	tracker := presence.NewStatic(defaultPresence)
	model := ui.NewChatModel(sess, tracker, defaultContacts)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	help := `charla - Terminal chat client

Usage:
  charla             Start the chat client
  charla version     Show version information
  charla help        Show this help message

Keys:
  enter              Send the typed message
  tab / shift+tab    Switch contact
  ↑/↓                Scroll the conversation
  esc or ctrl+c      Quit

Environment:
  RELAY_URL          WebSocket relay endpoint (default ws://localhost:5000/ws)

Notes:
  - The relay broadcasts every message to all connected clients
  - Delivery ticks are simulated locally and do not reflect real receipts
`
	fmt.Print(help)
}
