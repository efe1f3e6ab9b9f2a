package component

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EditorSubmitMsg is emitted when the user submits the input line.
type EditorSubmitMsg struct {
	Value string
}

// EditModel wraps the single-line input box. Enter submits.
type EditModel struct {
	textarea textarea.Model
	width    int
}

func NewEditModel() EditModel {
	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.Focus()

	ta.Prompt = "> "
	ta.CharLimit = 280

	ta.SetWidth(30)
	ta.SetHeight(1)

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false

	// Enter submits, never inserts a newline
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return EditModel{
		textarea: ta,
		width:    30,
	}
}

func (m EditModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m EditModel) Update(msg tea.Msg) (EditModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			value := m.textarea.Value()
			if value != "" {
				m.textarea.Reset()
				return m, func() tea.Msg {
					return EditorSubmitMsg{Value: value}
				}
			}
			return m, nil
		}
	}

	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *EditModel) View() string {
	return m.textarea.View()
}

func (m *EditModel) SetWidth(width int) {
	m.width = width
	m.textarea.SetWidth(width)
}

func (m *EditModel) Focus() tea.Cmd {
	return m.textarea.Focus()
}

func (m *EditModel) Blur() {
	m.textarea.Blur()
}

func (m *EditModel) Reset() {
	m.textarea.Reset()
}

func (m *EditModel) Height() int {
	return m.textarea.Height()
}
