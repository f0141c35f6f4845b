package mc

import (
	"context"
	"net/http"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rbac"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

const maxTransferItems = 64

type transferSendRequest struct {
	From     string
	To       string
	ServerID string
	Items    []any
}

func decodeTransferSend(body map[string]any) (transferSendRequest, *validate.FieldError) {
	from, ferr := requireMcUUID(body, "from_player_uuid")
	if ferr != nil {
		return transferSendRequest{}, ferr
	}
	to, ferr := requireMcUUID(body, "to_player_uuid")
	if ferr != nil {
		return transferSendRequest{}, ferr
	}
	if from == to {
		return transferSendRequest{}, fieldError("to_player_uuid", "Cannot transfer items to yourself")
	}
	srv, ferr := requireNonEmpty(body, "server_id")
	if ferr != nil {
		return transferSendRequest{}, ferr
	}
	items, ferr := validate.RequireArray(body, "items", maxTransferItems)
	if ferr != nil {
		return transferSendRequest{}, ferr
	}
	if len(items) == 0 {
		return transferSendRequest{}, fieldError("items", "items must contain at least one item")
	}
	return transferSendRequest{From: from, To: to, ServerID: srv, Items: items}, nil
}

func (s *service) transferModule() *dispatch.Module {
	return dispatch.NewModule("transfer", "",
		dispatch.Action{Name: "send", Handle: s.transferSend},
		dispatch.Action{Name: "claim", Handle: s.transferClaim},
		dispatch.Action{Name: "list", Handle: s.transferList},
	)
}

func (s *service) transferSend(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	in, ferr := decodeTransferSend(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_send_transfer", rpc.Params{
		"p_from_player_uuid": in.From,
		"p_to_player_uuid":   in.To,
		"p_server_id":        in.ServerID,
		"p_items":            in.Items,
	})
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	return httpapi.OK(gin.H{"success": true, "transfer_id": res})
}

func (s *service) transferClaim(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	id, ferr := validate.RequireUUID(req.Body, "transfer_id")
	if ferr != nil {
		return ferr.Response()
	}
	player, ferr := requireMcUUID(req.Body, "player_uuid")
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_claim_transfer", rpc.Params{"p_transfer_id": id, "p_player_uuid": player})
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	// Claiming is single-use: a second claim finds nothing.
	if res.IsEmpty() {
		return httpapi.Error("Transfer not found or already claimed", http.StatusNotFound)
	}
	return httpapi.OK(gin.H{"success": true, "transfer": res})
}

func (s *service) transferList(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	key, ferr := decodePlayerKey(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_list_transfers", key.params())
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	rows, err := res.Rows()
	if err != nil {
		return httpapi.InternalError()
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return httpapi.OK(gin.H{"transfers": rows})
}
