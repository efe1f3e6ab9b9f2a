package component

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusModel shows a spinner plus a one-line status text.
type StatusModel struct {
	spinner spinner.Model
	running bool
	text    string
	width   int
}

func NewStatusModel() StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Jump
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return StatusModel{
		spinner: s,
		running: false,
		text:    "Ready",
	}
}

func (m StatusModel) Init() tea.Cmd {
	// the spinner starts on demand, not at init
	return nil
}

func (m StatusModel) Update(msg tea.Msg) (StatusModel, tea.Cmd) {
	if m.running {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m StatusModel) View() string {
	style := lipgloss.NewStyle().Padding(1, 0)
	content := m.text
	if m.running {
		content = fmt.Sprintf("%s %s", m.spinner.View(), m.text)
	}
	return style.Render(content)
}

// Start begins the spinner with the given status text.
func (m StatusModel) Start(text string) (StatusModel, tea.Cmd) {
	m.running = true
	m.text = text
	return m, m.spinner.Tick
}

// Stop halts the spinner and shows text as the idle status.
func (m *StatusModel) Stop(text string) {
	m.running = false
	m.text = text
}

func (m *StatusModel) SetText(text string) {
	m.text = text
}

func (m *StatusModel) SetWidth(width int) {
	m.width = width
}

func (m StatusModel) IsRunning() bool {
	return m.running
}
