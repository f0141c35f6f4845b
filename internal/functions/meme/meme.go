// Package meme is the meme edge function: feed, reactions, saves, comments,
// profiles, follows and reports.
//
// Reads are open to anonymous callers. Writes need an end-user token, or a
// service_role token naming the user in body.user_id.
package meme

import (
	"context"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/function"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/identity"
	"edge-gateway/internal/rbac"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

const Name = "meme"

type service struct {
	rpc rpc.Caller
}

// Registry returns the meme module registry.
func Registry(caller rpc.Caller) *dispatch.Registry {
	s := &service{rpc: caller}
	return dispatch.NewRegistry(
		s.feedModule(),
		s.reactionModule(),
		s.saveModule(),
		s.userModule(),
		s.commentModule(),
		s.profileModule(),
		s.followModule(),
		s.reportModule(),
	)
}

// New returns the meme function.
func New(caller rpc.Caller) *function.Function {
	return &function.Function{
		Name:       Name,
		Policy:     rbac.Policy{AllowAnonymous: true},
		Dispatcher: Registry(caller),
	}
}

// actingUser gates a write action and returns the user it acts for.
func actingUser(req dispatch.Request) (string, *httpapi.Response) {
	if denied := rbac.RequireAuthenticated(req.Claims); denied != nil {
		return "", denied
	}
	return identity.ResolveActingUserID(req.Claims, req.Body)
}

func (s *service) call(ctx context.Context, name string, p rpc.Params) (rpc.Result, *httpapi.Response) {
	res, err := s.rpc.Call(ctx, name, p)
	if err != nil {
		r := rpc.Failure(ctx, err)
		return res, &r
	}
	return res, nil
}

// page renders a keyset page under key.
func page(key string, res rpc.Result, limit int) httpapi.Response {
	rows, err := res.Rows()
	if err != nil {
		return httpapi.InternalError()
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	hasMore, next := validate.PageInfo(rows, limit)
	return httpapi.OK(gin.H{key: rows, "nextCursor": next, "hasMore": hasMore})
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
