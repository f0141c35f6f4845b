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

// Account linking: a player asks for a code on the website, types it in game,
// and the game server verifies it.
func (s *service) authModule() *dispatch.Module {
	return dispatch.NewModule("auth", "",
		dispatch.Action{Name: "request_link", Handle: s.requestLink},
		dispatch.Action{Name: "verify", Handle: s.verifyLink},
		dispatch.Action{Name: "status", Handle: s.linkStatus},
		dispatch.Action{Name: "lookup", Handle: s.lookupLink},
		dispatch.Action{Name: "unlink", Handle: s.unlink},
	)
}

func (s *service) requestLink(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireUserToken(req.Claims); denied != nil {
		return *denied
	}
	mcUUID, ferr := requireMcUUID(req.Body, "mc_uuid")
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "proxy_request_link", rpc.Params{"p_mc_uuid": mcUUID})
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	return httpapi.OK(gin.H{"success": true, "verification_code": res})
}

type verifyRequest struct {
	MCUUID string
	Code   int
}

func decodeVerify(body map[string]any) (verifyRequest, *validate.FieldError) {
	id, ferr := requireMcUUID(body, "mc_uuid")
	if ferr != nil {
		return verifyRequest{}, ferr
	}
	code, ferr := validate.RequireIntRange(body, "code", 0, 999999)
	if ferr != nil {
		return verifyRequest{}, ferr
	}
	return verifyRequest{MCUUID: id, Code: code}, nil
}

func (s *service) verifyLink(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	in, ferr := decodeVerify(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_verify_link", rpc.Params{"p_mc_uuid": in.MCUUID, "p_code": in.Code})
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	// The procedure returns the linked user id, or null when the code is wrong,
	// expired or the link is locked after too many attempts.
	if res.IsEmpty() {
		return httpapi.OK(gin.H{"success": false, "error": "Verification failed (invalid code, expired, or locked)"})
	}
	return httpapi.OK(gin.H{"success": true, "user_id": res})
}

func (s *service) linkStatus(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireUserToken(req.Claims); denied != nil {
		return *denied
	}
	res, err := s.call(ctx, "proxy_get_link_status", nil)
	if err != nil {
		return rpc.FailureAs(ctx, err, "found")
	}
	return loaded("link", res, false)
}

func (s *service) lookupLink(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	mcUUID, ferr := requireMcUUID(req.Body, "mc_uuid")
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_get_user_by_mc_uuid", rpc.Params{"p_mc_uuid": mcUUID})
	if err != nil {
		return rpc.FailureAs(ctx, err, "found")
	}
	return loaded("link", res, false)
}

func (s *service) unlink(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireUserToken(req.Claims); denied != nil {
		return *denied
	}
	res, err := s.call(ctx, "proxy_unlink", nil)
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	return httpapi.OK(gin.H{"success": true, "was_linked": res})
}
