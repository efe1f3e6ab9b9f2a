package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quiver/config"
	"quiver/llm"
	"quiver/llm/vector"
	"quiver/tui/component"
)

const resultLimit = 10

type resultsMsg struct {
	query   string
	results []llm.SearchResult
	err     error
}

var (
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff")).Bold(true)
	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
)

// Model is the semantic search tab: a query input over a results viewport.
type Model struct {
	input    textinput.Model
	viewport viewport.Model
	status   component.StatusModel

	store    *vector.QdrantClient
	embedder *vector.EmbeddingClient
	cfg      *config.Provider

	width  int
	height int
}

func InitialModel(store *vector.QdrantClient, embedder *vector.EmbeddingClient, cfg *config.Provider) Model {
	ti := textinput.New()
	ti.Placeholder = "Search the selected collection..."
	ti.CharLimit = 280

	vp := viewport.New(30, 10)
	vp.SetContent(helpStyle.Render("Type a query and press Enter."))

	return Model{
		input:    ti,
		viewport: vp,
		status:   component.NewStatusModel(),
		store:    store,
		embedder: embedder,
		cfg:      cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case resultsMsg:
		if msg.err != nil {
			m.status.Stop("Error: " + msg.err.Error())
		} else {
			m.viewport.SetContent(renderResults(msg.query, msg.results))
			m.viewport.GotoTop()
			m.status.Stop(fmt.Sprintf("%d results", len(msg.results)))
		}

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(m.input.Value())
			if query != "" {
				var cmd tea.Cmd
				m.status, cmd = m.status.Start("Searching...")
				cmds = append(cmds, cmd, m.search(query))
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.status, cmd = m.status.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) search(query string) tea.Cmd {
	store := m.store
	embedder := m.embedder
	collection := m.cfg.SelectedCollection()
	return func() tea.Msg {
		if collection == "" {
			return resultsMsg{err: fmt.Errorf("no collection selected")}
		}
		ctx := context.Background()

		vectors, err := embedder.EmbedTexts(ctx, []string{query})
		if err != nil {
			return resultsMsg{err: err}
		}
		results, err := store.Search(ctx, collection, vectors[0], llm.SearchOptions{Limit: resultLimit})
		if err != nil {
			return resultsMsg{err: err}
		}
		return resultsMsg{query: query, results: results}
	}
}

func (m Model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Semantic Search")+"  "+helpStyle.Render("collection: "+orNone(m.cfg.SelectedCollection())+" · model: "+m.cfg.SelectedModel()),
		m.input.View(),
		m.viewport.View(),
		m.status.View(),
	)
}

// SetSize lays the input and result viewport out in the given area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 4
	m.viewport.Width = width
	m.viewport.Height = height - 6
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
}

// Focus gives keyboard focus to the query input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur removes keyboard focus from the query input.
func (m *Model) Blur() {
	m.input.Blur()
}

func renderResults(query string, results []llm.SearchResult) string {
	if len(results) == 0 {
		return helpStyle.Render(fmt.Sprintf("No results for %q.", query))
	}

	var sb strings.Builder
	for i, res := range results {
		text := vector.PayloadString(res.Payload, "text")
		file := vector.PayloadString(res.Payload, "fileName")
		sb.WriteString(scoreStyle.Render(fmt.Sprintf("[%d] %.4f", i+1, res.Score)))
		if file != "" {
			sb.WriteString("  " + helpStyle.Render(file))
		}
		sb.WriteString("\n" + text + "\n\n")
	}
	return sb.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
