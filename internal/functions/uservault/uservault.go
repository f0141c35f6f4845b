// Package uservault is the user-vault edge function: per-user API tokens
// stored encrypted by the store. Every action acts for one user, resolved
// before dispatch from the token subject or, for service_role, body.user_id.
package uservault

import (
	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/function"
	"edge-gateway/internal/rbac"
	"edge-gateway/internal/rpc"
)

const Name = "user-vault"

type service struct {
	rpc rpc.Caller
}

// Registry returns the user-vault module registry.
func Registry(caller rpc.Caller) *dispatch.Registry {
	s := &service{rpc: caller}
	return dispatch.NewRegistry(s.tokensModule())
}

// New returns the user-vault function.
func New(caller rpc.Caller) *function.Function {
	return &function.Function{
		Name: Name,
		Policy: rbac.Policy{
			Roles:       []string{rbac.RoleAuthenticated, rbac.RoleServiceRole},
			DenyMessage: "Access denied: authenticated or service_role required",
		},
		ResolveIdentity: true,
		Dispatcher:      Registry(caller),
	}
}
