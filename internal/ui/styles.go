package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("213"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("213"))

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	onlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("120"))

	offlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	messageFromMeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("111"))

	messageFromOtherStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("120"))

	messageMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true)

	readCheckStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))
)
