package ui

import "charm.land/lipgloss/v2"

var (
	successStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failureStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true)
	unselectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
)
