package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quiver/config"
	"quiver/llm/agent"
	"quiver/llm/vector"
	"quiver/tui/chat"
	"quiver/tui/collections"
	"quiver/tui/search"
)

type tab int

const (
	tabCollections tab = iota
	tabSearch
	tabChat
	tabCount
)

var tabNames = [tabCount]string{"Collections", "Search", "Chat"}

var (
	activeTabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1a1b26")).Background(lipgloss.Color("#7dcfff")).Padding(0, 2).Bold(true)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Padding(0, 2)
	tabBarStyle      = lipgloss.NewStyle().MarginBottom(1)
)

// Model is the root console model: a tab bar over the three views.
type Model struct {
	active tab

	collections collections.Model
	search      search.Model
	chat        chat.Model

	width  int
	height int
}

// NewModel wires the console from its backing clients.
func NewModel(store *vector.QdrantClient, embedder *vector.EmbeddingClient, pipeline *vector.Pipeline, runtime *agent.Runtime, cfg *config.Provider) Model {
	return Model{
		active:      tabCollections,
		collections: collections.InitialModel(store, pipeline, cfg),
		search:      search.InitialModel(store, embedder, cfg),
		chat:        chat.InitialModel(runtime),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.collections.Init(),
		m.search.Init(),
		m.chat.Init(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		body := m.bodyHeight()
		m.collections.SetSize(msg.Width, body)
		m.search.SetSize(msg.Width, body)
		m.chat.SetSize(msg.Width, body)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyTab:
			return m.switchTab((m.active + 1) % tabCount)
		case tea.KeyShiftTab:
			return m.switchTab((m.active + tabCount - 1) % tabCount)
		}
	}

	return m.updateActive(msg)
}

// updateActive routes a message to the active tab only, so key presses
// never leak into hidden views. Async results still land because each tab
// model produces and consumes its own message types.
func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch m.active {
	case tabCollections:
		m.collections, cmd = m.collections.Update(msg)
	case tabSearch:
		m.search, cmd = m.search.Update(msg)
	case tabChat:
		m.chat, cmd = m.chat.Update(msg)
	}
	cmds = append(cmds, cmd)

	// non-key messages may belong to a background tab's async work
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		if m.active != tabCollections {
			m.collections, cmd = m.collections.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.active != tabSearch {
			m.search, cmd = m.search.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.active != tabChat {
			m.chat, cmd = m.chat.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) switchTab(next tab) (tea.Model, tea.Cmd) {
	m.active = next

	m.search.Blur()
	m.chat.Blur()

	var cmd tea.Cmd
	switch next {
	case tabSearch:
		cmd = m.search.Focus()
	case tabChat:
		cmd = m.chat.Focus()
	}
	return m, cmd
}

func (m Model) View() string {
	rendered := make([]string, 0, int(tabCount))
	for i := tab(0); i < tabCount; i++ {
		style := inactiveTabStyle
		if i == m.active {
			style = activeTabStyle
		}
		rendered = append(rendered, style.Render(tabNames[i]))
	}
	bar := tabBarStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))

	var body string
	switch m.active {
	case tabCollections:
		body = m.collections.View()
	case tabSearch:
		body = m.search.View()
	case tabChat:
		body = m.chat.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, bar, body)
}

func (m Model) bodyHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}
