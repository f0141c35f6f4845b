package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edge-gateway/internal/auth"
	"edge-gateway/internal/functions/mc"
	"edge-gateway/internal/functions/meme"
	"edge-gateway/internal/functions/uservault"
	"edge-gateway/internal/functions/vaultreader"
	"edge-gateway/internal/rbac"
	"edge-gateway/internal/rpc/rpctest"

	"github.com/gin-gonic/gin"
)

func newEngine(t *testing.T, health HealthFunc) (*gin.Engine, *auth.Verifier, *rpctest.Stub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	v, err := auth.NewVerifier("gateway-secret")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	stub := rpctest.New()
	g := New(v, vaultreader.New(stub), mc.New(stub), meme.New(stub), uservault.New(stub)).WithHealth(health)
	r := gin.New()
	g.Register(r)
	return r, v, stub
}

func send(t *testing.T, r *gin.Engine, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func mint(t *testing.T, v *auth.Verifier, role string) string {
	t.Helper()
	tok, err := v.Mint(auth.Claims{Role: role, ExpiresAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return tok
}

func TestFunctionName(t *testing.T) {
	cases := map[string]string{
		"/meme":                "meme",
		"/functions/v1/meme":   "meme",
		"/functions/v1/meme/x": "meme",
		"/functions/v1/":       "",
		"/":                    "",
		"/nope/deeper":         "nope",
	}
	for in, want := range cases {
		if got := FunctionName(in); got != want {
			t.Fatalf("FunctionName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNames(t *testing.T) {
	g := New(nil, meme.New(rpctest.New()), mc.New(rpctest.New()))
	if got := strings.Join(g.Names(), ","); got != "mc,meme" {
		t.Fatalf("unexpected names %q", got)
	}
}

func TestDuplicateFunctionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New(nil, meme.New(rpctest.New()), meme.New(rpctest.New()))
}

func TestRoutingErrorsUseGatewayDialect(t *testing.T) {
	r, _, _ := newEngine(t, nil)

	code, body := send(t, r, http.MethodPost, "/", "", "{}")
	if code != http.StatusBadRequest || body["msg"] != "missing function name in request" {
		t.Fatalf("root: got %d %v", code, body)
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("gateway errors must not use the function dialect: %v", body)
	}

	code, body = send(t, r, http.MethodPost, "/functions/v1/unknown-fn", "", "{}")
	if code != http.StatusInternalServerError || body["msg"] != "function not found: unknown-fn" {
		t.Fatalf("unknown: got %d %v", code, body)
	}
}

func TestBothPrefixesReachFunctions(t *testing.T) {
	r, _, stub := newEngine(t, nil)
	stub.On("meme_fetch_feed", []map[string]any{})

	for _, path := range []string{"/meme", "/functions/v1/meme"} {
		code, body := send(t, r, http.MethodPost, path, "", `{"command":"feed.list"}`)
		if code != http.StatusOK {
			t.Fatalf("%s: got %d %v", path, code, body)
		}
	}
	code, _ := send(t, r, http.MethodOptions, "/functions/v1/user-vault", "", "")
	if code != http.StatusOK {
		t.Fatalf("preflight: got %d", code)
	}
}

func TestScenarios(t *testing.T) {
	r, v, stub := newEngine(t, nil)
	stub.On("get_vault_secret_by_id", nil)
	svc := mint(t, v, rbac.RoleServiceRole)

	code, _ := send(t, r, http.MethodPost, "/vault-reader", svc, `{"command":"get","secret_id":"00000000-0000-0000-0000-000000000000"}`)
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		t.Fatalf("vault-reader with service_role: got %d", code)
	}

	code, body := send(t, r, http.MethodPost, "/user-vault", svc, `{"command":"tokens.list_tokens"}`)
	if msg, _ := body["error"].(string); code != http.StatusBadRequest || !strings.Contains(msg, "user_id is required") {
		t.Fatalf("user-vault without user_id: got %d %v", code, body)
	}

	code, body = send(t, r, http.MethodPost, "/meme", svc, `{"command":"fake.action"}`)
	msg, _ := body["error"].(string)
	if code != http.StatusBadRequest {
		t.Fatalf("meme fake module: got %d", code)
	}
	for _, m := range []string{"feed", "reaction", "comment", "profile", "follow", "report"} {
		if !strings.Contains(msg, m) {
			t.Fatalf("message %q does not list %s", msg, m)
		}
	}

	code, body = send(t, r, http.MethodPost, "/mc", svc, `{"command":"fake.action"}`)
	msg, _ = body["error"].(string)
	for _, m := range []string{"auth", "player", "container", "transfer", "character", "skill"} {
		if code != http.StatusBadRequest || !strings.Contains(msg, m) {
			t.Fatalf("mc message %q does not list %s", msg, m)
		}
	}

	for _, fn := range []string{"vault-reader", "mc", "meme", "user-vault"} {
		code, _ := send(t, r, http.MethodPost, "/"+fn, svc, `{not valid json`)
		if code != http.StatusInternalServerError {
			t.Fatalf("%s malformed body: expected 500, got %d", fn, code)
		}
		code, body := send(t, r, http.MethodGet, "/"+fn, svc, "")
		if code != http.StatusMethodNotAllowed || body["error"] != "Only POST method is allowed" {
			t.Fatalf("%s GET: got %d %v", fn, code, body)
		}
	}
}

func TestHealthz(t *testing.T) {
	r, _, _ := newEngine(t, func(context.Context) error { return nil })
	if code, body := send(t, r, http.MethodGet, "/healthz", "", ""); code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthy: got %d %v", code, body)
	}

	r, _, _ = newEngine(t, func(context.Context) error { return errors.New("db down") })
	if code, body := send(t, r, http.MethodGet, "/healthz", "", ""); code != http.StatusServiceUnavailable || body["msg"] != "unhealthy" {
		t.Fatalf("unhealthy: got %d %v", code, body)
	}
}
