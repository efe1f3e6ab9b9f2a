package collections

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quiver/config"
	"quiver/llm"
	"quiver/llm/vector"
	"quiver/tui/component"
)

// Ingestion defaults used by the upload action.
const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

type mode int

const (
	modeList mode = iota
	modeCreate
	modeDelete
	modeUpload
	modeBrowse
)

type (
	collectionsLoadedMsg struct {
		collections []llm.Collection
	}
	browseLoadedMsg struct {
		name   string
		points []llm.Point
	}
	opDoneMsg struct {
		status  string
		err     error
		refresh bool
	}
	uploadProgressMsg struct {
		stage string
	}
	uploadDoneMsg struct {
		result *llm.UploadResult
		err    error
	}
)

var (
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff")).Bold(true)
)

// Model is the collections tab: a table of collections plus modal input
// states for create, delete, upload and browse.
type Model struct {
	table    table.Model
	input    textinput.Model
	status   component.StatusModel
	viewport viewport.Model

	store    *vector.QdrantClient
	pipeline *vector.Pipeline
	cfg      *config.Provider

	mode     mode
	target   string
	progress chan uploadProgressMsg

	width  int
	height int
}

func InitialModel(store *vector.QdrantClient, pipeline *vector.Pipeline, cfg *config.Provider) Model {
	columns := []table.Column{
		{Title: "Collection", Width: 32},
		{Title: "Vectors", Width: 12},
		{Title: "Dim", Width: 8},
		{Title: "Distance", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#1a1b26")).Background(lipgloss.Color("#7dcfff"))
	t.SetStyles(styles)

	ti := textinput.New()
	ti.CharLimit = 128

	return Model{
		table:    t,
		input:    ti,
		status:   component.NewStatusModel(),
		viewport: viewport.New(30, 10),
		store:    store,
		pipeline: pipeline,
		cfg:      cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return m.refresh()
}

func (m Model) refresh() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		collections, err := store.FetchCollections(context.Background())
		if err != nil {
			return opDoneMsg{err: err}
		}
		sort.Slice(collections, func(i, j int) bool { return collections[i].Name < collections[j].Name })
		return collectionsLoadedMsg{collections: collections}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case collectionsLoadedMsg:
		rows := make([]table.Row, 0, len(msg.collections))
		for _, c := range msg.collections {
			rows = append(rows, table.Row{
				c.Name,
				fmt.Sprintf("%d", c.PointsCount),
				fmt.Sprintf("%d", c.Config.Params.Vectors.Size),
				c.Config.Params.Vectors.Distance,
			})
		}
		m.table.SetRows(rows)
		m.status.Stop(fmt.Sprintf("%d collections", len(rows)))

	case browseLoadedMsg:
		m.mode = modeBrowse
		m.viewport.SetContent(renderPoints(msg.name, msg.points))
		m.viewport.GotoTop()
		m.status.Stop(fmt.Sprintf("%s: %d points (esc to close)", msg.name, len(msg.points)))

	case opDoneMsg:
		if msg.err != nil {
			m.status.Stop("Error: " + msg.err.Error())
		} else {
			m.status.Stop(msg.status)
		}
		if msg.refresh {
			cmds = append(cmds, m.refresh())
		}

	case uploadProgressMsg:
		m.status.SetText(msg.stage)
		cmds = append(cmds, m.waitForProgress())

	case uploadDoneMsg:
		m.progress = nil
		if msg.err != nil {
			m.status.Stop("Upload failed: " + msg.err.Error())
		} else {
			r := msg.result
			text := fmt.Sprintf("Stored %d/%d chunks into %s", r.VectorsCreated, r.ChunksProcessed, r.CollectionName)
			if len(r.Failures) > 0 {
				text += fmt.Sprintf(" (%d skipped)", len(r.Failures))
			}
			m.status.Stop(text)
			cmds = append(cmds, m.refresh())
		}

	case tea.KeyMsg:
		return m.handleKey(msg, cmds)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)
	m.status, cmd = m.status.Update(msg)
	cmds = append(cmds, cmd)
	if m.mode == modeBrowse {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg, cmds []tea.Cmd) (Model, tea.Cmd) {
	switch m.mode {
	case modeCreate, modeUpload:
		return m.handleInputKey(msg, cmds)
	case modeDelete:
		return m.handleConfirmKey(msg, cmds)
	case modeBrowse:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			m.mode = modeList
			m.status.Stop("Ready")
			return m, tea.Batch(cmds...)
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, tea.Batch(append(cmds, cmd)...)
	}

	switch msg.String() {
	case "r":
		var cmd tea.Cmd
		m.status, cmd = m.status.Start("Loading collections...")
		return m, tea.Batch(append(cmds, cmd, m.refresh())...)

	case "n":
		m.mode = modeCreate
		m.input.Placeholder = "new collection name"
		m.input.SetValue("")
		return m, tea.Batch(append(cmds, m.input.Focus())...)

	case "d":
		if name := m.selectedName(); name != "" {
			m.mode = modeDelete
			m.target = name
		}

	case "u":
		if name := m.selectedName(); name != "" {
			m.mode = modeUpload
			m.target = name
			m.input.Placeholder = "path to file (txt, md, html) or glob"
			m.input.SetValue("")
			return m, tea.Batch(append(cmds, m.input.Focus())...)
		}

	case "b":
		if name := m.selectedName(); name != "" {
			var cmd tea.Cmd
			m.status, cmd = m.status.Start("Loading points...")
			return m, tea.Batch(append(cmds, cmd, m.browse(name))...)
		}

	case "e":
		if name := m.selectedName(); name != "" {
			var cmd tea.Cmd
			m.status, cmd = m.status.Start("Exporting...")
			return m, tea.Batch(append(cmds, cmd, m.export(name))...)
		}

	case "enter":
		if name := m.selectedName(); name != "" {
			if err := m.cfg.SetSelectedCollection(name); err != nil {
				m.status.Stop("Error: " + err.Error())
			} else {
				m.status.Stop("Selected collection: " + name)
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, tea.Batch(append(cmds, cmd)...)
}

func (m Model) handleInputKey(msg tea.KeyMsg, cmds []tea.Cmd) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		m.input.Blur()
		m.status.Stop("Ready")
		return m, tea.Batch(cmds...)

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		if value == "" {
			m.mode = modeList
			return m, tea.Batch(cmds...)
		}

		var cmd tea.Cmd
		switch m.mode {
		case modeCreate:
			m.mode = modeList
			m.status, cmd = m.status.Start("Creating " + value + "...")
			return m, tea.Batch(append(cmds, cmd, m.create(value))...)
		case modeUpload:
			m.mode = modeList
			m.status, cmd = m.status.Start("Uploading...")
			m.progress = make(chan uploadProgressMsg, 16)
			return m, tea.Batch(append(cmds, cmd, m.upload(value, m.target), m.waitForProgress())...)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, tea.Batch(append(cmds, cmd)...)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg, cmds []tea.Cmd) (Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		name := m.target
		m.mode = modeList
		var cmd tea.Cmd
		m.status, cmd = m.status.Start("Deleting " + name + "...")
		return m, tea.Batch(append(cmds, cmd, m.delete(name))...)
	case "n", "N", "esc":
		m.mode = modeList
		m.status.Stop("Ready")
	}
	return m, tea.Batch(cmds...)
}

func (m Model) create(name string) tea.Cmd {
	store := m.store
	dim := m.pipeline.Dimension()
	return func() tea.Msg {
		if err := store.CreateCollection(context.Background(), name, dim); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: "Created " + name, refresh: true}
	}
}

func (m Model) delete(name string) tea.Cmd {
	store := m.store
	cfg := m.cfg
	return func() tea.Msg {
		if err := store.DeleteCollection(context.Background(), name); err != nil {
			return opDoneMsg{err: err}
		}
		// a deleted collection cannot stay selected
		if cfg.SelectedCollection() == name {
			_ = cfg.SetSelectedCollection("")
		}
		return opDoneMsg{status: "Deleted " + name, refresh: true}
	}
}

func (m Model) browse(name string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		points, err := store.BrowseCollection(context.Background(), name)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return browseLoadedMsg{name: name, points: points}
	}
}

func (m Model) export(name string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		path := name + ".json"
		f, err := os.Create(path)
		if err != nil {
			return opDoneMsg{err: err}
		}
		defer f.Close()
		if err := store.ExportCollection(context.Background(), name, f); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: "Exported to " + path}
	}
}

func (m Model) upload(path, collection string) tea.Cmd {
	pipeline := m.pipeline
	progress := m.progress
	onProgress := func(current, total int, stage string) {
		select {
		case progress <- uploadProgressMsg{stage: fmt.Sprintf("%s (%d%%)", stage, current*100/total)}:
		default:
		}
	}
	return func() tea.Msg {
		defer close(progress)
		var result *llm.UploadResult
		var err error
		if strings.ContainsAny(path, "*?[{") {
			var results []*llm.UploadResult
			results, err = pipeline.UploadGlob(context.Background(), path, collection, defaultChunkSize, defaultChunkOverlap, onProgress)
			result = mergeResults(results, collection)
		} else {
			result, err = pipeline.UploadAndProcessFile(context.Background(), path, collection, defaultChunkSize, defaultChunkOverlap, onProgress)
		}
		return uploadDoneMsg{result: result, err: err}
	}
}

func (m Model) waitForProgress() tea.Cmd {
	progress := m.progress
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-progress
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) selectedName() string {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (m Model) View() string {
	if m.mode == modeBrowse {
		return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.status.View())
	}

	parts := []string{
		titleStyle.Render("Collections") + "  " + helpStyle.Render("(selected: "+orNone(m.cfg.SelectedCollection())+" · model: "+m.cfg.SelectedModel()+")"),
		m.table.View(),
	}

	switch m.mode {
	case modeCreate, modeUpload:
		parts = append(parts, m.input.View())
	case modeDelete:
		parts = append(parts, fmt.Sprintf("Delete %q and all its vectors? (y/n)", m.target))
	default:
		parts = append(parts, helpStyle.Render("r refresh · n new · d delete · u upload · b browse · e export · enter select"))
	}

	parts = append(parts, m.status.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetSize fits the table and browse viewport into the given area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	tableHeight := height - 6
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)
	m.viewport.Width = width
	m.viewport.Height = height - 3
	m.input.Width = width - 4
}

func renderPoints(name string, points []llm.Point) string {
	if len(points) == 0 {
		return "Collection " + name + " is empty."
	}

	var sb strings.Builder
	for _, pt := range points {
		text := vector.PayloadString(pt.Payload, "text")
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		file := vector.PayloadString(pt.Payload, "fileName")
		fmt.Fprintf(&sb, "%v  %s\n%s\n\n", pt.ID, helpStyle.Render(file), text)
	}
	return sb.String()
}

func mergeResults(results []*llm.UploadResult, collection string) *llm.UploadResult {
	merged := &llm.UploadResult{Success: true, CollectionName: collection}
	for _, r := range results {
		if r == nil {
			continue
		}
		merged.ChunksProcessed += r.ChunksProcessed
		merged.VectorsCreated += r.VectorsCreated
		merged.Failures = append(merged.Failures, r.Failures...)
	}
	return merged
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
