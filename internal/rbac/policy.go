package rbac

import (
	"errors"
	"net/http"

	"edge-gateway/internal/auth"
)

// State is where a request lands in the authorization state machine.
//
//	token absent                          -> Anonymous
//	token present, signature/expiry fails -> TokenInvalid (401)
//	token valid, role not in set          -> InsufficientRole (403)
//	token valid, role in set              -> SufficientRole
type State int

const (
	StateAnonymous State = iota + 1
	StateTokenInvalid
	StateInsufficientRole
	StateSufficientRole
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateTokenInvalid:
		return "token_invalid"
	case StateInsufficientRole:
		return "insufficient_role"
	case StateSufficientRole:
		return "sufficient_role"
	default:
		return "unknown"
	}
}

// Policy is the static access rule of one edge function.
type Policy struct {
	// Roles is the required role set. Empty means any verified role.
	Roles []string
	// AllowAnonymous lets requests without an Authorization header through
	// with the implicit anon identity.
	AllowAnonymous bool
	// DenyMessage is returned with 403 when the role is not in Roles.
	DenyMessage string
}

// AccessResult is the outcome of Check. Status and Message are set only when denied.
type AccessResult struct {
	State   State
	Status  int
	Message string
}

func (r AccessResult) Allowed() bool {
	return r.Status == 0
}

func (p Policy) permits(role string) bool {
	if len(p.Roles) == 0 {
		return true
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Check evaluates the policy for a request. authErr is the failure from
// auth.ExtractToken / Verifier.Parse, or nil when a token verified.
func (p Policy) Check(claims auth.Claims, authErr error) AccessResult {
	var ae *auth.AuthError
	if authErr != nil && !errors.As(authErr, &ae) {
		ae = auth.ErrInvalidJWT
	}

	if ae != nil {
		switch ae.Kind {
		case auth.KindMissingHeader:
			if p.AllowAnonymous {
				return AccessResult{State: StateAnonymous}
			}
			return AccessResult{State: StateAnonymous, Status: http.StatusUnauthorized, Message: ae.Error()}
		case auth.KindMalformedHeader, auth.KindInvalidJWT:
			return AccessResult{State: StateTokenInvalid, Status: http.StatusUnauthorized, Message: ae.Error()}
		default:
			return AccessResult{State: StateTokenInvalid, Status: http.StatusUnauthorized, Message: auth.ErrInvalidJWT.Error()}
		}
	}

	if !p.permits(claims.Role) {
		msg := p.DenyMessage
		if msg == "" {
			msg = "Access denied"
		}
		return AccessResult{State: StateInsufficientRole, Status: http.StatusForbidden, Message: msg}
	}
	return AccessResult{State: StateSufficientRole}
}
