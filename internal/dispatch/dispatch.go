// Package dispatch routes "module.action" commands to handlers.
//
// A Registry is built once per function and never changes afterwards, so it can
// be shared by every request goroutine without locking.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"edge-gateway/internal/auth"
	"edge-gateway/internal/httpapi"
)

// Request is what a handler sees. It is built per request and never retained.
type Request struct {
	Token  string
	Claims auth.Claims
	Body   map[string]any
	Action string
	// ActingUserID is set when the function resolves identity before dispatch.
	ActingUserID string
}

// HandlerFunc handles one (module, action) pair.
type HandlerFunc func(ctx context.Context, req Request) httpapi.Response

// Action binds an action name to its handler.
type Action struct {
	Name   string
	Handle HandlerFunc
}

// Dispatcher is implemented by Registry and Flat.
type Dispatcher interface {
	Dispatch(ctx context.Context, command any, req Request) httpapi.Response
}

// Module is a named group of actions with its own second-level dispatch.
type Module struct {
	name    string
	label   string
	order   []string
	actions map[string]HandlerFunc
}

// NewModule builds a module. label names the module in unknown-action errors
// ("Unknown {label} action"); it defaults to name. Duplicate or empty action
// names panic: registries are assembled at startup.
func NewModule(name, label string, actions ...Action) *Module {
	if name == "" {
		panic("dispatch: module name is empty")
	}
	if label == "" {
		label = name
	}
	m := &Module{name: name, label: label, actions: make(map[string]HandlerFunc, len(actions))}
	for _, a := range actions {
		if a.Name == "" || a.Handle == nil {
			panic(fmt.Sprintf("dispatch: invalid action in module %s", name))
		}
		if _, dup := m.actions[a.Name]; dup {
			panic(fmt.Sprintf("dispatch: duplicate action %s.%s", name, a.Name))
		}
		m.actions[a.Name] = a.Handle
		m.order = append(m.order, a.Name)
	}
	return m
}

func (m *Module) Name() string { return m.name }

// Actions returns the action names in registration order.
func (m *Module) Actions() []string {
	return append([]string(nil), m.order...)
}

// Handle runs the handler for req.Action.
func (m *Module) Handle(ctx context.Context, req Request) httpapi.Response {
	h, ok := m.actions[req.Action]
	if !ok {
		return httpapi.Error(
			fmt.Sprintf("Unknown %s action: %s. Use: %s", m.label, req.Action, strings.Join(m.order, ", ")),
			http.StatusBadRequest,
		)
	}
	return h(ctx, req)
}

// Registry maps module names to modules.
type Registry struct {
	order   []string
	modules map[string]*Module
}

func NewRegistry(modules ...*Module) *Registry {
	r := &Registry{modules: make(map[string]*Module, len(modules))}
	for _, m := range modules {
		if _, dup := r.modules[m.name]; dup {
			panic(fmt.Sprintf("dispatch: duplicate module %s", m.name))
		}
		r.modules[m.name] = m
		r.order = append(r.order, m.name)
	}
	return r
}

// ModuleNames returns module names in registration order.
func (r *Registry) ModuleNames() []string {
	return append([]string(nil), r.order...)
}

// Commands returns every "module.action" the registry accepts.
func (r *Registry) Commands() []string {
	var out []string
	for _, name := range r.order {
		for _, a := range r.modules[name].order {
			out = append(out, name+"."+a)
		}
	}
	return out
}

// Command is a parsed "module.action" string.
type Command struct {
	Module string
	Action string
}

func (c Command) String() string { return c.Module + "." + c.Action }

var ErrNoDelimiter = errors.New("command has no module delimiter")

// ParseCommand splits s at the first dot. The action may contain further dots.
// Matching is exact: no trimming or case folding.
func ParseCommand(s string) (Command, error) {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return Command{}, ErrNoDelimiter
	}
	return Command{Module: s[:i], Action: s[i+1:]}, nil
}

// Dispatch routes command to its module handler.
func (r *Registry) Dispatch(ctx context.Context, command any, req Request) httpapi.Response {
	s, ok := command.(string)
	if !ok || s == "" {
		return httpapi.Error(
			"command is required. Valid commands: "+strings.Join(r.Commands(), ", "),
			http.StatusBadRequest,
		)
	}
	cmd, err := ParseCommand(s)
	if err != nil {
		return httpapi.Error("Invalid command format. Use 'module.action' (e.g. "+r.example()+")", http.StatusBadRequest)
	}
	m, ok := r.modules[cmd.Module]
	if !ok {
		return httpapi.Error(
			fmt.Sprintf("Unknown module: %s. Valid modules: %s", cmd.Module, strings.Join(r.order, ", ")),
			http.StatusBadRequest,
		)
	}
	req.Action = cmd.Action
	return m.Handle(ctx, req)
}

func (r *Registry) example() string {
	if cmds := r.Commands(); len(cmds) > 0 {
		return cmds[0]
	}
	return "feed.list"
}
