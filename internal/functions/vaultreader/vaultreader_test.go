package vaultreader

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edge-gateway/internal/auth"
	"edge-gateway/internal/rbac"
	"edge-gateway/internal/rpc/rpctest"

	"github.com/gin-gonic/gin"
)

const secretID = "00000000-0000-0000-0000-000000000000"

func setup(t *testing.T) (*gin.Engine, *rpctest.Stub, *auth.Verifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	v, err := auth.NewVerifier("vault-secret")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	stub := rpctest.New()
	r := gin.New()
	r.Any("/vault-reader", New(stub).Handlers(v)...)
	return r, stub, v
}

func post(t *testing.T, r *gin.Engine, v *auth.Verifier, role string, body string) (int, map[string]any) {
	t.Helper()
	tok, err := v.Mint(auth.Claims{Role: role, ExpiresAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/vault-reader", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return w.Code, out
}

func TestRoleMatrix(t *testing.T) {
	r, stub, v := setup(t)
	stub.On("get_vault_secret_by_id", nil)
	body := `{"command":"get","secret_id":"` + secretID + `"}`

	for _, role := range []string{rbac.RoleAnon, rbac.RoleAuthenticated} {
		code, out := post(t, r, v, role, body)
		if code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", role, code)
		}
		if msg, _ := out["error"].(string); !strings.Contains(msg, "Service role required") {
			t.Fatalf("%s: unexpected message %q", role, msg)
		}
	}

	// A service_role caller reaches the handler.
	code, _ := post(t, r, v, rbac.RoleServiceRole, body)
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		t.Fatalf("service_role: got %d", code)
	}
	if n := len(stub.Calls()); n != 1 {
		t.Fatalf("expected one store call, got %d", n)
	}
}

func TestGet(t *testing.T) {
	r, stub, v := setup(t)
	stub.On("get_vault_secret_by_id", []map[string]any{{
		"id": secretID, "name": "stripe", "description": nil, "decrypted_secret": "sk_live",
		"created_at": "2026-01-01T00:00:00Z", "updated_at": "2026-01-02T00:00:00Z", "key_id": "internal",
	}})

	code, out := post(t, r, v, rbac.RoleServiceRole, `{"command":"get","secret_id":"`+secretID+`"}`)
	if code != http.StatusOK || out["decrypted_secret"] != "sk_live" || out["name"] != "stripe" {
		t.Fatalf("got %d %v", code, out)
	}
	if _, ok := out["key_id"]; ok {
		t.Fatalf("unexpected column leaked: %v", out)
	}
	call, _ := stub.Last()
	if call.Params["secret_id"] != secretID {
		t.Fatalf("unexpected params %v", call.Params)
	}

	stub.On("get_vault_secret_by_id", []map[string]any{})
	code, out = post(t, r, v, rbac.RoleServiceRole, `{"command":"get","secret_id":"`+secretID+`"}`)
	if code != http.StatusNotFound || out["error"] != "Secret not found" {
		t.Fatalf("missing: got %d %v", code, out)
	}

	code, out = post(t, r, v, rbac.RoleServiceRole, `{"command":"get"}`)
	if code != http.StatusBadRequest || out["error"] != "secret_id is required for get command" {
		t.Fatalf("no id: got %d %v", code, out)
	}
}

func TestStoreErrorsAre500(t *testing.T) {
	r, stub, v := setup(t)
	stub.Fail("get_vault_secret_by_id", "permission denied for schema vault")
	code, out := post(t, r, v, rbac.RoleServiceRole, `{"command":"get","secret_id":"`+secretID+`"}`)
	if code != http.StatusInternalServerError || out["error"] != "permission denied for schema vault" {
		t.Fatalf("store error: got %d %v", code, out)
	}

	stub.FailWith("set_vault_secret", errors.New("connection reset"))
	code, out = post(t, r, v, rbac.RoleServiceRole, `{"command":"set","secret_name":"a","secret_value":"b"}`)
	if code != http.StatusInternalServerError || out["error"] != "Internal server error" {
		t.Fatalf("transport error: got %d %v", code, out)
	}
}

func TestSet(t *testing.T) {
	r, stub, v := setup(t)
	stub.On("set_vault_secret", secretID)

	code, out := post(t, r, v, rbac.RoleServiceRole, `{"command":"set","secret_name":"stripe","secret_value":"sk_live","secret_description":"payments"}`)
	if code != http.StatusOK || out["success"] != true || out["secret_id"] != secretID || out["message"] != "Secret created/updated successfully" {
		t.Fatalf("got %d %v", code, out)
	}
	call, _ := stub.Last()
	if call.Params["secret_description"] != "payments" {
		t.Fatalf("unexpected params %v", call.Params)
	}

	code, out = post(t, r, v, rbac.RoleServiceRole, `{"command":"set","secret_name":"stripe"}`)
	if code != http.StatusBadRequest || out["error"] != "secret_name and secret_value are required for set command" {
		t.Fatalf("missing value: got %d %v", code, out)
	}
}

func TestCommands(t *testing.T) {
	r, _, v := setup(t)
	code, out := post(t, r, v, rbac.RoleServiceRole, `{}`)
	if code != http.StatusBadRequest || out["error"] != "command is required (get or set)" {
		t.Fatalf("missing command: got %d %v", code, out)
	}
	code, out = post(t, r, v, rbac.RoleServiceRole, `{"command":"delete"}`)
	if code != http.StatusBadRequest || out["error"] != `Invalid command. Use "get" or "set"` {
		t.Fatalf("unknown command: got %d %v", code, out)
	}
	code, _ = post(t, r, v, rbac.RoleServiceRole, `{not valid json`)
	if code != http.StatusInternalServerError {
		t.Fatalf("malformed body: expected 500, got %d", code)
	}
}
