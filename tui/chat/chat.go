package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quiver/llm"
	"quiver/llm/agent"
	"quiver/pubsub"
	"quiver/tui/component"
)

// turnDoneMsg reports the end of one chat turn.
type turnDoneMsg struct {
	err error
}

// Model is the chat tab: transcript, status line and input box.
type Model struct {
	list   component.ListModel
	edit   component.EditModel
	status component.StatusModel

	runtime *agent.Runtime
	sub     <-chan pubsub.Event[*llm.ChatMessage]
	ctx     context.Context

	width  int
	height int
	busy   bool
}

func InitialModel(runtime *agent.Runtime) Model {
	ctx := context.Background()
	sub := runtime.Broker().Subscribe(ctx)

	return Model{
		list:    component.NewListModel(),
		edit:    component.NewEditModel(),
		status:  component.NewStatusModel(),
		runtime: runtime,
		sub:     sub,
		ctx:     ctx,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.list.Init(),
		m.edit.Init(),
		m.status.Init(),
		m.waitForChatMessage(),
	)
}

// waitForChatMessage blocks on the broker subscription and feeds the next
// transcript event into the update loop.
func (m Model) waitForChatMessage() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.sub
		if !ok {
			return nil
		}
		return event
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case component.EditorSubmitMsg:
		if m.busy {
			break
		}
		m.busy = true
		var cmd tea.Cmd
		m.status, cmd = m.status.Start("Thinking...")
		cmds = append(cmds, cmd, m.runTurn(msg.Value))

	case turnDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status.Stop("Error: " + msg.err.Error())
		} else {
			m.status.Stop("Ready")
		}

	case pubsub.Event[*llm.ChatMessage]:
		cmds = append(cmds, m.waitForChatMessage())

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc && m.busy {
			// abort the in-flight turn, keep the app running
			m.runtime.Cancel()
		}
	}

	var cmd tea.Cmd

	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	m.edit, cmd = m.edit.Update(msg)
	cmds = append(cmds, cmd)

	m.status, cmd = m.status.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// runTurn drives one Runtime.Run call off the UI goroutine.
func (m Model) runTurn(prompt string) tea.Cmd {
	runtime := m.runtime
	ctx := m.ctx
	return func() tea.Msg {
		return turnDoneMsg{err: runtime.Run(ctx, prompt)}
	}
}

func (m Model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.list.View(),
		m.status.View(),
		m.edit.View(),
	)
}

// SetSize lays the three components out inside the given area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	statusHeight := lipgloss.Height(m.status.View())
	editHeight := m.edit.Height()
	listHeight := height - statusHeight - editHeight

	m.list.SetSize(width, listHeight)
	m.edit.SetWidth(width)
	m.status.SetWidth(width)
}

// Focus gives keyboard focus to the input box.
func (m *Model) Focus() tea.Cmd {
	return m.edit.Focus()
}

// Blur removes keyboard focus from the input box.
func (m *Model) Blur() {
	m.edit.Blur()
}
