package meme

import (
	"context"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

func (s *service) followModule() *dispatch.Module {
	return dispatch.NewModule("follow", "",
		dispatch.Action{Name: "add", Handle: s.followAdd},
		dispatch.Action{Name: "remove", Handle: s.followRemove},
	)
}

func (s *service) followAdd(ctx context.Context, req dispatch.Request) httpapi.Response {
	uid, denied := actingUser(req)
	if denied != nil {
		return *denied
	}
	target, ferr := validate.RequireUUID(req.Body, "following_id")
	if ferr != nil {
		return ferr.Response()
	}
	if target == uid {
		return (&validate.FieldError{Field: "following_id", Message: "Cannot follow yourself"}).Response()
	}
	res, fail := s.call(ctx, "meme_follow", rpc.Params{"p_user_id": uid, "p_following_id": target})
	if fail != nil {
		return *fail
	}
	// is_new is false when the follow already existed; passed through as-is.
	isNew, _ := res.Value().(bool)
	return httpapi.OK(gin.H{"success": true, "is_new": isNew})
}

func (s *service) followRemove(ctx context.Context, req dispatch.Request) httpapi.Response {
	uid, denied := actingUser(req)
	if denied != nil {
		return *denied
	}
	target, ferr := validate.RequireUUID(req.Body, "following_id")
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_unfollow", rpc.Params{"p_user_id": uid, "p_following_id": target})
	if fail != nil {
		return *fail
	}
	removed, _ := res.Value().(bool)
	return httpapi.OK(gin.H{"success": true, "was_following": removed})
}
