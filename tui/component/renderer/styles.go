package renderer

import (
	"github.com/charmbracelet/lipgloss"
)

// MessageStyles groups the lipgloss styles used for transcript entries.
type MessageStyles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Tool      lipgloss.Style

	ToolName   lipgloss.Style
	ToolBorder lipgloss.Style
	Indent     lipgloss.Style
}

// DefaultMessageStyles returns the default color scheme.
func DefaultMessageStyles() *MessageStyles {
	return &MessageStyles{
		User:       lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff")).Bold(true),
		Assistant:  lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7")).Bold(true),
		System:     lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Italic(true),
		Tool:       lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
		ToolName:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")).Bold(true),
		ToolBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Faint(true),
		Indent:     lipgloss.NewStyle().PaddingLeft(2),
	}
}
