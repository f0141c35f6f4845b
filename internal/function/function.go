// Package function assembles one edge function: method gate, authentication,
// access policy, body parsing and command dispatch.
package function

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"edge-gateway/internal/audit"
	"edge-gateway/internal/auth"
	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/identity"
	"edge-gateway/internal/rbac"
	"edge-gateway/internal/validate"
	"edge-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Auditor records service_role calls made on behalf of a user.
type Auditor interface {
	LogDelegatedCall(ctx context.Context, d audit.DelegatedCall) error
}

// Function is a deployed edge function.
type Function struct {
	Name   string
	Policy rbac.Policy

	// ResolveIdentity resolves the acting user before dispatch, so every
	// handler gets Request.ActingUserID.
	ResolveIdentity bool

	Dispatcher dispatch.Dispatcher

	// Auditor is optional.
	Auditor Auditor

	// Middleware runs after the access policy and before the body is read.
	Middleware []gin.HandlerFunc
}

// Handlers returns the gin chain serving f.
func (f *Function) Handlers(v *auth.Verifier) []gin.HandlerFunc {
	hs := []gin.HandlerFunc{
		httpapi.Preflight(),
		httpapi.RequirePOST(),
		auth.Authenticate(v),
		rbac.Require(f.Policy),
	}
	hs = append(hs, f.Middleware...)
	return append(hs, f.serve)
}

type outcome struct {
	resp    httpapi.Response
	command string
	acting  string
}

func (f *Function) serve(c *gin.Context) {
	log := logger.FromGin(c).With("function", f.Name)
	ctx := logger.With(c.Request.Context(), log)
	claims, _ := auth.ClaimsFrom(ctx)

	out := f.handle(ctx, log, c.Request, claims)
	out.resp.Write(c)

	f.audit(ctx, log, c.ClientIP(), claims, out)
}

func (f *Function) handle(ctx context.Context, log *slog.Logger, r *http.Request, claims auth.Claims) (out outcome) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("handler panic", "command", out.command, "panic", p, "stack", string(debug.Stack()))
			out.resp = httpapi.InternalError()
		}
	}()

	body, err := httpapi.DecodeBody(r)
	if err != nil {
		log.Warn("request body rejected", "err", err)
		out.resp = httpapi.InternalError()
		return out
	}
	out.command, _ = body["command"].(string)

	req := dispatch.Request{
		Token:  auth.Token(ctx),
		Claims: claims,
		Body:   body,
	}
	if f.ResolveIdentity {
		id, denied := identity.ResolveActingUserID(claims, body)
		if denied != nil {
			out.resp = *denied
			return out
		}
		req.ActingUserID = id
	}
	out.acting = req.ActingUserID

	log.Debug("dispatch", "command", out.command, "role", claims.Role)
	out.resp = f.Dispatcher.Dispatch(ctx, body["command"], req)
	if out.resp.Status >= http.StatusInternalServerError {
		log.Error("command failed", "command", out.command, "status", out.resp.Status)
	}
	if out.acting == "" && identity.Delegated(claims) {
		if s, ok := body["user_id"].(string); ok && validate.IsUUID(s) {
			out.acting = s
		}
	}
	return out
}

func (f *Function) audit(ctx context.Context, log *slog.Logger, ip string, claims auth.Claims, out outcome) {
	if f.Auditor == nil || !identity.Delegated(claims) || out.acting == "" {
		return
	}
	status := out.resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	err := f.Auditor.LogDelegatedCall(ctx, audit.DelegatedCall{
		Function:   f.Name,
		Command:    out.command,
		ActorRole:  claims.Role,
		OnBehalfOf: out.acting,
		IP:         ip,
		Status:     status,
	})
	if err != nil {
		log.Warn("audit append failed", "err", err)
	}
}
