package mc

import (
	"context"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rbac"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

func (s *service) playerModule() *dispatch.Module {
	return dispatch.NewModule("player", "",
		dispatch.Action{Name: "save", Handle: s.playerSave},
		dispatch.Action{Name: "load", Handle: s.playerLoad},
	)
}

func (s *service) playerSave(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	player, ferr := validate.RequireObject(req.Body, "player")
	if ferr != nil {
		return ferr.Response()
	}
	if _, ferr := decodePlayerKey(player); ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_save_player", rpc.Params{"p_player": player})
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	return httpapi.OK(gin.H{"success": true, "saved": res})
}

func (s *service) playerLoad(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	key, ferr := decodePlayerKey(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_load_player", key.params())
	if err != nil {
		return rpc.FailureAs(ctx, err, "found")
	}
	return loaded("player", res, false)
}
