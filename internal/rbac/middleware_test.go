package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edge-gateway/internal/auth"

	"github.com/gin-gonic/gin"
)

func newEngine(t *testing.T, p Policy) (*gin.Engine, *auth.Verifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	v, err := auth.NewVerifier("secret")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	r := gin.New()
	r.POST("/x", auth.Authenticate(v), Require(p), func(c *gin.Context) {
		c.JSON(200, gin.H{"state": StateOf(c).String()})
	})
	return r, v
}

func do(r *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, v *auth.Verifier, role string, exp time.Time) string {
	t.Helper()
	tok, err := v.Mint(auth.Claims{Role: role, ExpiresAt: exp})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return "Bearer " + tok
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m["error"]
}

func TestRequire_ServiceRoleMatrix(t *testing.T) {
	p := Policy{Roles: []string{RoleServiceRole}, DenyMessage: "Access denied: Service role required"}
	r, v := newEngine(t, p)
	exp := time.Now().Add(time.Hour)

	if w := do(r, bearer(t, v, RoleServiceRole, exp)); w.Code != 200 {
		t.Fatalf("service_role: expected 200, got %d", w.Code)
	}
	for _, role := range []string{RoleAnon, RoleAuthenticated, "made_up"} {
		w := do(r, bearer(t, v, role, exp))
		if w.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", role, w.Code)
		}
		if !strings.Contains(errorOf(t, w), "Service role required") {
			t.Fatalf("%s: unexpected message %q", role, w.Body.String())
		}
	}
}

func TestRequire_TokenFailures(t *testing.T) {
	r, v := newEngine(t, Policy{})

	w := do(r, "")
	if w.Code != http.StatusUnauthorized || !strings.Contains(errorOf(t, w), "Missing authorization header") {
		t.Fatalf("missing header: got %d %s", w.Code, w.Body.String())
	}

	w = do(r, "Token abc")
	if w.Code != http.StatusUnauthorized || !strings.Contains(errorOf(t, w), "'Bearer {token}'") {
		t.Fatalf("malformed header: got %d %s", w.Code, w.Body.String())
	}

	w = do(r, bearer(t, v, RoleServiceRole, time.Now().Add(-time.Minute)))
	if w.Code != http.StatusUnauthorized || !strings.Contains(errorOf(t, w), "Invalid JWT") {
		t.Fatalf("expired: got %d %s", w.Code, w.Body.String())
	}

	other, _ := auth.NewVerifier("other")
	w = do(r, bearer(t, other, RoleServiceRole, time.Now().Add(time.Hour)))
	if w.Code != http.StatusUnauthorized || !strings.Contains(errorOf(t, w), "Invalid JWT") {
		t.Fatalf("wrong secret: got %d %s", w.Code, w.Body.String())
	}
}

func TestRequire_AnonymousAllowed(t *testing.T) {
	r, v := newEngine(t, Policy{AllowAnonymous: true})

	w := do(r, "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), "anonymous") {
		t.Fatalf("expected anonymous pass-through, got %d %s", w.Code, w.Body.String())
	}

	// A present-but-bad token is never downgraded to anonymous.
	w = do(r, "Bearer not.a.jwt")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = do(r, bearer(t, v, RoleAuthenticated, time.Now().Add(time.Hour)))
	if w.Code != 200 || !strings.Contains(w.Body.String(), "sufficient_role") {
		t.Fatalf("expected sufficient role, got %d %s", w.Code, w.Body.String())
	}
}

func TestRequire_UserVaultPolicy(t *testing.T) {
	p := Policy{Roles: []string{RoleAuthenticated, RoleServiceRole}, DenyMessage: "Access denied: authenticated or service_role required"}
	r, v := newEngine(t, p)
	exp := time.Now().Add(time.Hour)

	w := do(r, bearer(t, v, RoleAnon, exp))
	if w.Code != http.StatusForbidden || !strings.Contains(errorOf(t, w), "authenticated or service_role required") {
		t.Fatalf("anon: got %d %s", w.Code, w.Body.String())
	}
	for _, role := range []string{RoleAuthenticated, RoleServiceRole} {
		if w := do(r, bearer(t, v, role, exp)); w.Code != 200 {
			t.Fatalf("%s: expected 200, got %d", role, w.Code)
		}
	}
}

func TestGuards(t *testing.T) {
	svc := auth.Claims{Role: RoleServiceRole}
	user := auth.Claims{Role: RoleAuthenticated, Subject: "00000000-1111-2222-3333-444444444444"}
	anon := auth.Anonymous()

	if RequireServiceRole(svc) != nil {
		t.Fatalf("service_role must pass RequireServiceRole")
	}
	if r := RequireServiceRole(user); r == nil || r.Status != http.StatusForbidden {
		t.Fatalf("user must be denied by RequireServiceRole")
	}

	if RequireUserToken(user) != nil {
		t.Fatalf("user must pass RequireUserToken")
	}
	if r := RequireUserToken(svc); r == nil || r.Status != http.StatusForbidden {
		t.Fatalf("service_role must be denied by RequireUserToken")
	}
	if r := RequireUserToken(anon); r == nil || r.Status != http.StatusUnauthorized {
		t.Fatalf("anon must get 401 from RequireUserToken")
	}

	if RequireAuthenticated(user) != nil || RequireAuthenticated(svc) != nil {
		t.Fatalf("user and service_role must pass RequireAuthenticated")
	}
	if r := RequireAuthenticated(anon); r == nil || r.Status != http.StatusUnauthorized {
		t.Fatalf("anon must get 401 from RequireAuthenticated")
	}
}
