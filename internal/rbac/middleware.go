package rbac

import (
	"net/http"

	"edge-gateway/internal/auth"
	"edge-gateway/internal/httpapi"

	"github.com/gin-gonic/gin"
)

const ginKeyState = "rbac_state"

// Require enforces p after auth.Authenticate has run.
// Denials use the function error dialect: 401 for missing/invalid tokens,
// 403 for a verified token whose role is outside the set.
func Require(p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := auth.ClaimsFrom(c.Request.Context())
		res := p.Check(claims, auth.AuthErr(c))
		c.Set(ginKeyState, res.State)
		if !res.Allowed() {
			httpapi.Error(res.Message, res.Status).Write(c)
			return
		}
		c.Next()
	}
}

// StateOf returns the state recorded by Require.
func StateOf(c *gin.Context) State {
	if v, ok := c.Get(ginKeyState); ok {
		if s, ok := v.(State); ok {
			return s
		}
	}
	return 0
}

// Per-handler guards. They return nil when the caller may proceed.

// RequireServiceRole admits only service_role callers.
func RequireServiceRole(claims auth.Claims) *httpapi.Response {
	if IsServiceRole(claims.Role) {
		return nil
	}
	r := httpapi.Error("Access denied: service_role required", http.StatusForbidden)
	return &r
}

// RequireUserToken admits only end-user tokens; service_role has no user of its own.
func RequireUserToken(claims auth.Claims) *httpapi.Response {
	if IsAuthenticated(claims.Role) && claims.HasSubject() {
		return nil
	}
	if IsServiceRole(claims.Role) {
		r := httpapi.Error("Use an authenticated user token, not service_role", http.StatusForbidden)
		return &r
	}
	r := httpapi.Error("Authentication required", http.StatusUnauthorized)
	return &r
}

// RequireAuthenticated admits authenticated users and service_role callers
// acting on behalf of a user; anonymous callers get 401.
func RequireAuthenticated(claims auth.Claims) *httpapi.Response {
	if IsServiceRole(claims.Role) || (IsAuthenticated(claims.Role) && claims.HasSubject()) {
		return nil
	}
	r := httpapi.Error("Authentication required", http.StatusUnauthorized)
	return &r
}
