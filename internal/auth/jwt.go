package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// Verifier checks HS256 bearer tokens against the shared project secret.
// It holds no per-request state and is safe for concurrent use.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// ExtractToken pulls the raw token out of an Authorization header value.
// The scheme prefix is matched literally, as the edge runtime does.
func ExtractToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrMalformedAuthHeader
	}
	return strings.TrimPrefix(header, bearerPrefix), nil
}

/* ===================== VERIFY TOKEN ===================== */

// Parse verifies signature and expiry and returns the decoded claims.
// Every failure (segment count, encoding, signature, payload, exp <= now) is ErrInvalidJWT.
func (v *Verifier) Parse(token string, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	m := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, m, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, &AuthError{Kind: KindInvalidJWT, Err: err}
	}
	return claimsFromMap(m), nil
}

/* ===================== MINT TOKEN ===================== */

// Mint signs claims with the shared secret. Tokens are normally issued by the
// identity provider; this exists for tests and local tooling.
func (v *Verifier) Mint(c Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c.toMap())
	return t.SignedString(v.secret)
}
