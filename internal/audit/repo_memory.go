package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps events in process memory. Tests use it to inspect what a
// request recorded.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of every event in append order.
func (r *MemoryRepo) Events() []Event {
	return r.filter(func(Event) bool { return true })
}

// OnBehalfOf returns the events recorded for userID.
func (r *MemoryRepo) OnBehalfOf(userID string) []Event {
	return r.filter(func(e Event) bool { return e.OnBehalfOf == userID })
}

func (r *MemoryRepo) filter(keep func(Event) bool) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
