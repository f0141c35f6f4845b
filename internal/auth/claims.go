package auth

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified payload of a bearer token.
// It is produced once per request by Verifier.Parse and never mutated afterwards.
//
// Role is kept verbatim even when it is not one of the known rbac roles;
// rejecting unknown roles is the access policy's job.
type Claims struct {
	Role      string
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Extra holds every claim not mapped to a field above.
	Extra map[string]any
}

// HasSubject reports whether the token names a user.
func (c Claims) HasSubject() bool { return c.Subject != "" }

// Anonymous is the implicit identity of a caller that sent no token.
func Anonymous() Claims { return Claims{Role: "anon"} }

func claimsFromMap(m jwt.MapClaims) Claims {
	c := Claims{Extra: map[string]any{}}
	for k, v := range m {
		switch k {
		case "role":
			if s, ok := v.(string); ok {
				c.Role = s
			}
		case "sub":
			if s, ok := v.(string); ok {
				c.Subject = s
			}
		case "iss":
			if s, ok := v.(string); ok {
				c.Issuer = s
			}
		case "iat", "exp":
			// decoded below through the typed accessors
		default:
			c.Extra[k] = v
		}
	}
	if iat, err := m.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := m.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c
}

func (c Claims) toMap() jwt.MapClaims {
	m := jwt.MapClaims{}
	for k, v := range c.Extra {
		m[k] = v
	}
	if c.Role != "" {
		m["role"] = c.Role
	}
	if c.Subject != "" {
		m["sub"] = c.Subject
	}
	if c.Issuer != "" {
		m["iss"] = c.Issuer
	}
	if !c.IssuedAt.IsZero() {
		m["iat"] = jwt.NewNumericDate(c.IssuedAt)
	}
	if !c.ExpiresAt.IsZero() {
		m["exp"] = jwt.NewNumericDate(c.ExpiresAt)
	}
	return m
}

// JSON renders the claims the way the store expects in request.jwt.claims.
func (c Claims) JSON() ([]byte, error) {
	return json.Marshal(c.toMap())
}
