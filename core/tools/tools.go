package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/codewandler/crux-go/core/ds"
)

var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrDuplicateTool = errors.New("tool already registered")
)

type (
	// Definition describes one callable tool as advertised to clients.
	Definition struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		InputSchema json.RawMessage `json:"inputSchema"`
	}

	// Handler executes a tool call. args is the raw JSON arguments object;
	// the returned value is marshalled into the call result.
	Handler func(ctx context.Context, args json.RawMessage) (any, error)

	// Registry holds the tool set: definitions for listing, handlers for
	// dispatch. Safe for concurrent use.
	Registry struct {
		mu    sync.RWMutex
		names *ds.Set[string]
		tools map[string]tool
	}

	tool struct {
		def Definition
		h   Handler
	}
)

func NewRegistry() *Registry {
	return &Registry{
		names: ds.NewSet[string](),
		tools: map[string]tool{},
	}
}

// Register adds a tool. The definition name must be non-empty and unused.
func (r *Registry) Register(def Definition, h Handler) error {
	if def.Name == "" {
		return errors.New("tool name is required")
	}
	if h == nil {
		return fmt.Errorf("tool %s: handler is required", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.names.Add(def.Name) {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	r.tools[def.Name] = tool{def: def, h: h}
	return nil
}

// MustRegister is like [Registry.Register] but panics on error.
func (r *Registry) MustRegister(def Definition, h Handler) {
	if err := r.Register(def, h); err != nil {
		panic(err)
	}
}

// List returns the definitions in registration order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, r.names.Len())
	for _, name := range r.names.Values() {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names.Len()
}

// Dispatch runs the named tool. An unregistered name fails with
// [ErrUnknownTool]; everything else is the handler's result.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (any, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.h(ctx, args)
}
