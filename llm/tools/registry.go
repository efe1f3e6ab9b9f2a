package tools

import (
	"context"
	"fmt"

	"quiver/llm"
	"quiver/logging"
)

// HandlerFunc executes one tool invocation. arguments is the raw JSON
// string the model produced.
type HandlerFunc func(ctx context.Context, arguments string) (string, error)

type entry struct {
	decl    llm.ToolDeclaration
	handler HandlerFunc
}

// Registry holds tool declarations and their handlers. Registration order
// is preserved so declaration lists are stable across calls.
type Registry struct {
	entries map[string]entry
	order   []string
	logger  logging.Logger
}

func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		entries: make(map[string]entry),
		logger:  logger,
	}
}

// Register adds a tool, replacing any previous one with the same name.
func (r *Registry) Register(decl llm.ToolDeclaration, handler HandlerFunc) {
	name := decl.Function.Name
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = entry{decl: decl, handler: handler}
}

// Declarations returns the declarations for the named tools, or for every
// registered tool when names is empty. Unknown names are skipped.
func (r *Registry) Declarations(names ...string) []llm.ToolDeclaration {
	if len(names) == 0 {
		names = r.order
	}
	decls := make([]llm.ToolDeclaration, 0, len(names))
	for _, name := range names {
		if e, ok := r.entries[name]; ok {
			decls = append(decls, e.decl)
		}
	}
	return decls
}

// Execute runs the tool a model call names. The returned string is the
// tool result body regardless of outcome; the error reports failures the
// caller must still serialize into a result turn.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	e, ok := r.entries[call.Function.Name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", call.Function.Name)
	}
	r.logger.Debugf("executing tool %s", call.Function.Name)
	return e.handler(ctx, call.Function.Arguments)
}
