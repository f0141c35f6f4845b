package auth

// ErrorKind classifies why a request could not be authenticated.
// The function entrypoint maps each kind to an HTTP status explicitly.
type ErrorKind int

const (
	KindMissingHeader ErrorKind = iota + 1
	KindMalformedHeader
	KindInvalidJWT
)

type AuthError struct {
	Kind ErrorKind
	// Err is the underlying verification failure, if any. It is logged, never returned to clients.
	Err error
}

var (
	ErrMissingAuthHeader   = &AuthError{Kind: KindMissingHeader}
	ErrMalformedAuthHeader = &AuthError{Kind: KindMalformedHeader}
	ErrInvalidJWT          = &AuthError{Kind: KindInvalidJWT}
)

func (e *AuthError) Error() string {
	switch e.Kind {
	case KindMissingHeader:
		return "Missing authorization header"
	case KindMalformedHeader:
		return "Authorization header format must be 'Bearer {token}'"
	default:
		return "Invalid JWT"
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches on Kind so wrapped verification failures still compare equal to the sentinels.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}
