// Package rpctest provides an in-memory rpc.Caller for handler tests.
package rpctest

import (
	"context"
	"fmt"
	"sync"

	"edge-gateway/internal/auth"
	"edge-gateway/internal/rpc"
)

// Call is one recorded invocation.
type Call struct {
	Name   string
	Params rpc.Params
	Claims auth.Claims
}

type reply struct {
	result rpc.Result
	err    error
}

// Stub answers calls from canned replies. Unknown procedures fail the way a
// store does when the function does not exist.
type Stub struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []Call
}

func New() *Stub {
	return &Stub{replies: make(map[string]reply)}
}

// On makes name return v (marshalled as JSON).
func (s *Stub) On(name string, v any) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[name] = reply{result: rpc.ResultOf(v)}
	return s
}

// Fail makes name return a store error with msg.
func (s *Stub) Fail(name, msg string) *Stub {
	return s.FailWith(name, &rpc.Error{Message: msg, Code: "P0001"})
}

// FailWith makes name return err.
func (s *Stub) FailWith(name string, err error) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[name] = reply{err: err}
	return s
}

func (s *Stub) Call(ctx context.Context, name string, params rpc.Params) (rpc.Result, error) {
	claims, _ := auth.ClaimsFrom(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Name: name, Params: params, Claims: claims})

	r, ok := s.replies[name]
	if !ok {
		return rpc.Result{}, &rpc.Error{Message: fmt.Sprintf("function %s does not exist", name), Code: "42883"}
	}
	return r.result, r.err
}

// Calls returns the recorded invocations in order.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Last returns the most recent invocation.
func (s *Stub) Last() (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return Call{}, false
	}
	return s.calls[len(s.calls)-1], true
}
