package dispatch

import (
	"context"
	"net/http"
	"strings"

	"edge-gateway/internal/httpapi"
)

// Flat dispatches single-word commands ("get", "set") for functions that
// predate the module grammar.
type Flat struct {
	order    []string
	handlers map[string]HandlerFunc
}

func NewFlat(actions ...Action) *Flat {
	m := NewModule("flat", "", actions...)
	return &Flat{order: m.order, handlers: m.actions}
}

// Commands returns the accepted command names.
func (f *Flat) Commands() []string {
	return append([]string(nil), f.order...)
}

func (f *Flat) quoted() string {
	q := make([]string, len(f.order))
	for i, c := range f.order {
		q[i] = `"` + c + `"`
	}
	return strings.Join(q, " or ")
}

func (f *Flat) Dispatch(ctx context.Context, command any, req Request) httpapi.Response {
	s, ok := command.(string)
	if !ok || s == "" {
		return httpapi.Error("command is required ("+strings.Join(f.order, " or ")+")", http.StatusBadRequest)
	}
	h, ok := f.handlers[s]
	if !ok {
		return httpapi.Error("Invalid command. Use "+f.quoted(), http.StatusBadRequest)
	}
	req.Action = s
	return h(ctx, req)
}
