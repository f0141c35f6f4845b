package meme

import (
	"context"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

func (s *service) saveModule() *dispatch.Module {
	return dispatch.NewModule("save", "",
		dispatch.Action{Name: "add", Handle: s.saveToggle("meme_save", "saved")},
		dispatch.Action{Name: "remove", Handle: s.saveToggle("meme_unsave", "removed")},
	)
}

// saveToggle builds add/remove, which differ only in procedure and result key.
func (s *service) saveToggle(proc, key string) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) httpapi.Response {
		uid, denied := actingUser(req)
		if denied != nil {
			return *denied
		}
		id, ferr := validate.RequireULID(req.Body, "meme_id")
		if ferr != nil {
			return ferr.Response()
		}
		res, fail := s.call(ctx, proc, rpc.Params{"p_user_id": uid, "p_meme_id": id})
		if fail != nil {
			return *fail
		}
		return httpapi.OK(gin.H{"success": true, key: res})
	}
}
