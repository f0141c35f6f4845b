package meme

import (
	"context"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

const maxBatch = 50

func (s *service) userModule() *dispatch.Module {
	return dispatch.NewModule("user", "",
		dispatch.Action{Name: "reactions", Handle: s.userBatch("meme_get_user_reactions", "reactions")},
		dispatch.Action{Name: "saves", Handle: s.userBatch("meme_get_user_saves", "saves")},
	)
}

// userBatch looks up the acting user's state for up to 50 memes at once.
func (s *service) userBatch(proc, key string) dispatch.HandlerFunc {
	return func(ctx context.Context, req dispatch.Request) httpapi.Response {
		uid, denied := actingUser(req)
		if denied != nil {
			return *denied
		}
		ids, ferr := validate.ULIDBatch(req.Body, "meme_ids", maxBatch)
		if ferr != nil {
			return ferr.Response()
		}
		res, fail := s.call(ctx, proc, rpc.Params{"p_user_id": uid, "p_meme_ids": ids})
		if fail != nil {
			return *fail
		}
		rows, err := res.Rows()
		if err != nil {
			return httpapi.InternalError()
		}
		if rows == nil {
			rows = []map[string]any{}
		}
		return httpapi.OK(gin.H{key: rows})
	}
}
