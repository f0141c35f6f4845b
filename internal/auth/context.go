package auth

import (
	"context"
)

type ctxKey int

const (
	ctxClaims ctxKey = iota
	ctxToken
)

// WithIdentity attaches the verified (or implicit anonymous) claims and the raw
// token to ctx. An empty token means the caller sent no Authorization header.
func WithIdentity(ctx context.Context, token string, c Claims) context.Context {
	ctx = context.WithValue(ctx, ctxClaims, c)
	ctx = context.WithValue(ctx, ctxToken, token)
	return ctx
}

// ClaimsFrom returns the claims attached by WithIdentity.
func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(Claims)
	return c, ok
}

// Token returns the raw bearer token, or "" for anonymous callers.
func Token(ctx context.Context) string {
	s, _ := ctx.Value(ctxToken).(string)
	return s
}
