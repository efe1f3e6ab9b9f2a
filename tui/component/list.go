package component

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"quiver/llm"
	"quiver/pubsub"
	"quiver/tui/component/renderer"
)

// ListModel holds the chat transcript inside a viewport. Rendering is
// delegated to the MessageRenderer.
type ListModel struct {
	viewport viewport.Model
	messages []*llm.ChatMessage
	width    int
	height   int
	ready    bool

	renderer *renderer.MessageRenderer
}

func NewListModel() ListModel {
	vp := viewport.New(30, 30)
	msgRenderer := renderer.NewMessageRenderer(nil)
	vp.SetContent(msgRenderer.RenderMessages(nil))

	return ListModel{
		viewport: vp,
		messages: make([]*llm.ChatMessage, 0),
		renderer: msgRenderer,
		width:    30,
		height:   5,
		ready:    true,
	}
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.viewport.ScrollUp(3)
		case tea.MouseButtonWheelDown:
			m.viewport.ScrollDown(3)
		}
	case pubsub.Event[*llm.ChatMessage]:
		if msg.Type != pubsub.FinishedEvent {
			m.messages = append(m.messages, msg.Payload)
			m.updateViewportContent()
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.viewport.View()
}

// Clear drops the transcript.
func (m *ListModel) Clear() {
	m.messages = m.messages[:0]
	m.updateViewportContent()
}

// SetSize resizes the viewport; height is clamped to at least one row.
func (m *ListModel) SetSize(width, height int) {
	m.width = width
	m.height = height

	if height < 1 {
		height = 1
	}

	m.viewport.Width = width
	m.viewport.Height = height
	m.ready = true

	m.renderer.SetViewportWidth(width)

	if len(m.messages) > 0 {
		m.updateViewportContent()
	}
	m.viewport.GotoBottom()
}

func (m *ListModel) updateViewportContent() {
	m.viewport.SetContent(m.renderer.RenderMessages(m.messages))
}
