package renderer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"quiver/llm"
)

// MessageRenderer turns chat messages into styled terminal output.
// Already-final messages are cached so the transcript renders in O(1)
// per new message.
type MessageRenderer struct {
	markdownRenderer *glamour.TermRenderer
	styles           *MessageStyles
	renderedCache    []string
	viewportWidth    int
}

// NewMessageRenderer builds a renderer with the given styles, or the
// defaults when styles is nil.
func NewMessageRenderer(styles *MessageStyles) *MessageRenderer {
	if styles == nil {
		styles = DefaultMessageStyles()
	}

	// word wrap is handled by the viewport, not glamour
	markdownRenderer, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dracula"),
		glamour.WithWordWrap(0),
	)
	return &MessageRenderer{
		markdownRenderer: markdownRenderer,
		styles:           styles,
		renderedCache:    make([]string, 0),
	}
}

// SetViewportWidth sets the wrap width for rendered output.
func (r *MessageRenderer) SetViewportWidth(width int) {
	r.viewportWidth = width
}

// RenderMessages renders the whole transcript, reusing cached renders for
// everything but the newest message.
func (r *MessageRenderer) RenderMessages(messages []*llm.ChatMessage) string {
	if len(messages) == 0 {
		return "Ask anything about the selected collection.\nType a message and press Enter to send."
	}

	// transcript was cleared, drop the cache with it
	if len(messages) < len(r.renderedCache) {
		r.renderedCache = r.renderedCache[:0]
	}

	for i := len(r.renderedCache); i < len(messages)-1; i++ {
		r.renderedCache = append(r.renderedCache, r.RenderMessage(messages[i]))
	}

	var sb strings.Builder
	for _, cached := range r.renderedCache {
		if cached != "" {
			sb.WriteString(cached)
			sb.WriteString("\n\n")
		}
	}
	if last := r.RenderMessage(messages[len(messages)-1]); last != "" {
		sb.WriteString(last)
	}

	content := sb.String()
	if r.viewportWidth > 0 {
		return lipgloss.NewStyle().Width(r.viewportWidth).Render(content)
	}
	return content
}

// RenderMessage renders one transcript entry by sender.
func (r *MessageRenderer) RenderMessage(msg *llm.ChatMessage) string {
	switch msg.Sender {
	case llm.SenderUser:
		return r.renderUserMessage(msg)
	case llm.SenderAI:
		return r.renderAssistantMessage(msg)
	case llm.SenderTool:
		return r.renderToolMessage(msg)
	}
	return ""
}

func (r *MessageRenderer) renderMarkdown(content string) string {
	if r.markdownRenderer == nil {
		return content
	}
	rendered, err := r.markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	// glamour pads with blank lines
	return strings.TrimSpace(rendered)
}

// User text stays raw, no markdown pass.
func (r *MessageRenderer) renderUserMessage(msg *llm.ChatMessage) string {
	if msg.Content == "" {
		return ""
	}
	return r.styles.User.Render("You:") + " " + msg.Content
}

func (r *MessageRenderer) renderAssistantMessage(msg *llm.ChatMessage) string {
	if msg.Content == "" {
		return ""
	}
	header := r.styles.Assistant.Render("Assistant:")
	return header + "\n" + r.renderMarkdown(msg.Content)
}

// Tool turns render as a bordered block naming the tool; errors keep the
// tool's own error text.
func (r *MessageRenderer) renderToolMessage(msg *llm.ChatMessage) string {
	if len(msg.ToolInfo) == 0 {
		if msg.Content == "" {
			return ""
		}
		return r.styles.Tool.Render(msg.Content)
	}

	var parts []string
	for _, inv := range msg.ToolInfo {
		title := fmt.Sprintf("Tool: %s", inv.Name)
		if inv.Err != "" {
			title += " (failed)"
		}
		body := inv.Result
		if body == "" && inv.Err != "" {
			body = inv.Err
		}
		parts = append(parts, r.styles.Indent.Render(
			r.styles.ToolBorder.Render("┌─ ")+
				r.styles.ToolName.Render(title)+
				"\n"+
				r.styles.Tool.Render(body)+
				"\n"+
				r.styles.ToolBorder.Render("└─"),
		))
	}
	return strings.Join(parts, "\n")
}
