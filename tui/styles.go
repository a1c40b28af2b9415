package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Layout constants
const (
	minTextareaHeight = 3
	maxTextareaHeight = 20
	textareaPadding   = 1

	minViewportHeight = 1
	inputBorderHeight = 2
	headerHeight      = 2
)

// Color palette
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#06B6D4") // Cyan
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	textColor      = lipgloss.Color("#F9FAFB") // Light gray
	upsellColor    = lipgloss.Color("#F472B6") // Pink
)

// Title bar
var titleStyle = lipgloss.NewStyle().
	Background(primaryColor).
	Foreground(textColor).
	Bold(true)

// Messages
var (
	messageStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

	userMessageStyle = lipgloss.NewStyle().
				Inherit(messageStyle).
				BorderForeground(primaryColor).
				MarginLeft(10)

	agentMessageStyle = lipgloss.NewStyle().
				Inherit(messageStyle).
				BorderForeground(secondaryColor).
				MarginRight(10)

	upsellMessageStyle = lipgloss.NewStyle().
				Inherit(messageStyle).
				BorderForeground(upsellColor).
				Foreground(upsellColor).
				Italic(true)
)

// Persistent notices (provider outages and the like)
var noticeStyle = lipgloss.NewStyle().
	Foreground(accentColor).
	Italic(true)

// Error line
var errorStyle = lipgloss.NewStyle().
	Foreground(errorColor).
	Bold(true)

// Input area
var textAreaStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(primaryColor).
	PaddingLeft(textareaPadding)

// Spinner
var spinnerStyle = lipgloss.NewStyle().
	Foreground(secondaryColor)

// Help text
var helpStyle = lipgloss.NewStyle().
	Foreground(mutedColor).
	Italic(true)

// Viewport
var viewportStyle = lipgloss.NewStyle().Margin(0).Padding(0)

func messageHorizontalFrameSize() int {
	return agentMessageStyle.GetHorizontalFrameSize()
}
