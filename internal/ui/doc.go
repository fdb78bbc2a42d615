// Package ui renders terminal output for repobee commands.
//
// Non-interactive output such as tables and hook result summaries is
// rendered with lipgloss. The plugin selector is an interactive
// bubbletea program that renders to stderr so stdout remains
// available for piping.
package ui
