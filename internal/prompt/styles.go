package prompt

import "github.com/charmbracelet/lipgloss"

var (
	questionStyle  = lipgloss.NewStyle().Bold(true)
	defaultStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
