// Package identity decides which user a request acts for.
package identity

import (
	"net/http"

	"edge-gateway/internal/auth"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rbac"
	"edge-gateway/internal/validate"
)

// ResolveActingUserID returns the effective user id for claims and body.
//
// Authenticated callers act as themselves (sub). service_role callers have no
// user of their own and must name one in body.user_id. Any other role here
// means the access policy let through something it should not have.
func ResolveActingUserID(claims auth.Claims, body map[string]any) (string, *httpapi.Response) {
	switch {
	case rbac.IsServiceRole(claims.Role):
		id, ferr := validate.RequireUUID(body, "user_id")
		if ferr != nil {
			r := ferr.Response()
			return "", &r
		}
		return id, nil
	case rbac.IsAuthenticated(claims.Role) && claims.HasSubject():
		return claims.Subject, nil
	case rbac.IsAuthenticated(claims.Role):
		r := httpapi.Error("Authentication required", http.StatusUnauthorized)
		return "", &r
	default:
		r := httpapi.InternalError()
		return "", &r
	}
}

// Delegated reports whether the caller acts on behalf of another user.
func Delegated(claims auth.Claims) bool {
	return rbac.IsServiceRole(claims.Role)
}
