package meme

import (
	"context"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

type reactionRequest struct {
	MemeID   string
	Reaction int
}

func decodeReactionAdd(body map[string]any) (reactionRequest, *validate.FieldError) {
	id, ferr := validate.RequireULID(body, "meme_id")
	if ferr != nil {
		return reactionRequest{}, ferr
	}
	r, ferr := validate.RequireIntRange(body, "reaction", 1, 6)
	if ferr != nil {
		return reactionRequest{}, ferr
	}
	return reactionRequest{MemeID: id, Reaction: r}, nil
}

func (s *service) reactionModule() *dispatch.Module {
	return dispatch.NewModule("reaction", "",
		dispatch.Action{Name: "add", Handle: s.reactionAdd},
		dispatch.Action{Name: "remove", Handle: s.reactionRemove},
	)
}

func (s *service) reactionAdd(ctx context.Context, req dispatch.Request) httpapi.Response {
	uid, denied := actingUser(req)
	if denied != nil {
		return *denied
	}
	in, ferr := decodeReactionAdd(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	if _, fail := s.call(ctx, "meme_react", rpc.Params{
		"p_user_id":  uid,
		"p_meme_id":  in.MemeID,
		"p_reaction": in.Reaction,
	}); fail != nil {
		return *fail
	}
	return httpapi.OK(gin.H{"success": true, "meme_id": in.MemeID, "reaction": in.Reaction})
}

func (s *service) reactionRemove(ctx context.Context, req dispatch.Request) httpapi.Response {
	uid, denied := actingUser(req)
	if denied != nil {
		return *denied
	}
	id, ferr := validate.RequireULID(req.Body, "meme_id")
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_unreact", rpc.Params{"p_user_id": uid, "p_meme_id": id})
	if fail != nil {
		return *fail
	}
	return httpapi.OK(gin.H{"success": true, "removed": res})
}
