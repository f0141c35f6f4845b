package uservault

import (
	"context"
	"net/http"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

const (
	maxTokenName   = 100
	maxServiceName = 50
	maxTokenValue  = 4096
	maxDescription = 500
)

func (s *service) tokensModule() *dispatch.Module {
	return dispatch.NewModule("tokens", "token",
		dispatch.Action{Name: "list_tokens", Handle: s.listTokens},
		dispatch.Action{Name: "set_token", Handle: s.setToken},
		dispatch.Action{Name: "get_token", Handle: s.getToken},
		dispatch.Action{Name: "delete_token", Handle: s.deleteToken},
		dispatch.Action{Name: "toggle_token", Handle: s.toggleToken},
	)
}

type setTokenRequest struct {
	Name        string
	Service     string
	Value       string
	Description string
}

func decodeSetToken(body map[string]any) (setTokenRequest, *validate.FieldError) {
	name, ferr := validate.TrimmedLength(body, "token_name", 1, maxTokenName)
	if ferr != nil {
		return setTokenRequest{}, ferr
	}
	svc, ferr := validate.RequireString(body, "service")
	if ferr != nil {
		return setTokenRequest{}, ferr
	}
	if len(svc) > maxServiceName || !validate.IsSlug(svc) {
		return setTokenRequest{}, &validate.FieldError{Field: "service", Message: "service must be a lowercase slug of at most 50 characters"}
	}
	value, ferr := validate.RequireString(body, "token_value")
	if ferr != nil {
		return setTokenRequest{}, ferr
	}
	if len(value) > maxTokenValue {
		return setTokenRequest{}, &validate.FieldError{Field: "token_value", Message: "token_value must be at most 4096 bytes"}
	}
	desc, ferr := validate.OptionalString(body, "description", maxDescription)
	if ferr != nil {
		return setTokenRequest{}, ferr
	}
	return setTokenRequest{Name: name, Service: svc, Value: value, Description: desc}, nil
}

type toggleRequest struct {
	TokenID  string
	IsActive bool
}

func decodeToggle(body map[string]any) (toggleRequest, *validate.FieldError) {
	id, ferr := validate.RequireUUID(body, "token_id")
	if ferr != nil {
		return toggleRequest{}, ferr
	}
	active, ferr := validate.RequireBool(body, "is_active")
	if ferr != nil {
		return toggleRequest{}, ferr
	}
	return toggleRequest{TokenID: id, IsActive: active}, nil
}

func (s *service) call(ctx context.Context, name string, p rpc.Params) (rpc.Result, *httpapi.Response) {
	res, err := s.rpc.Call(ctx, name, p)
	if err != nil {
		r := rpc.Failure(ctx, err)
		return res, &r
	}
	return res, nil
}

func (s *service) listTokens(ctx context.Context, req dispatch.Request) httpapi.Response {
	res, fail := s.call(ctx, "user_vault_list_tokens", rpc.Params{"p_user_id": req.ActingUserID})
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
	return httpapi.OK(gin.H{"success": true, "tokens": rows})
}

func (s *service) setToken(ctx context.Context, req dispatch.Request) httpapi.Response {
	in, ferr := decodeSetToken(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	var desc any
	if in.Description != "" {
		desc = in.Description
	}
	res, fail := s.call(ctx, "user_vault_set_token", rpc.Params{
		"p_user_id":     req.ActingUserID,
		"p_token_name":  in.Name,
		"p_service":     in.Service,
		"p_token_value": in.Value,
		"p_description": desc,
	})
	if fail != nil {
		return *fail
	}
	return httpapi.OK(gin.H{"success": true, "token_id": res})
}

func (s *service) getToken(ctx context.Context, req dispatch.Request) httpapi.Response {
	id, ferr := validate.RequireUUID(req.Body, "token_id")
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "user_vault_get_token", rpc.Params{"p_user_id": req.ActingUserID, "p_token_id": id})
	if fail != nil {
		return *fail
	}
	row, ok := res.First()
	if !ok {
		return httpapi.Error("Token not found", http.StatusNotFound)
	}
	return httpapi.OK(gin.H{"success": true, "token": row})
}

func (s *service) deleteToken(ctx context.Context, req dispatch.Request) httpapi.Response {
	id, ferr := validate.RequireUUID(req.Body, "token_id")
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "user_vault_delete_token", rpc.Params{"p_user_id": req.ActingUserID, "p_token_id": id})
	if fail != nil {
		return *fail
	}
	if res.Value() != true {
		return httpapi.Error("Token not found", http.StatusNotFound)
	}
	return httpapi.OK(gin.H{"success": true})
}

func (s *service) toggleToken(ctx context.Context, req dispatch.Request) httpapi.Response {
	in, ferr := decodeToggle(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "user_vault_toggle_token", rpc.Params{
		"p_user_id":   req.ActingUserID,
		"p_token_id":  in.TokenID,
		"p_is_active": in.IsActive,
	})
	if fail != nil {
		return *fail
	}
	if res.Value() != true {
		return httpapi.Error("Token not found", http.StatusNotFound)
	}
	return httpapi.OK(gin.H{"success": true, "is_active": in.IsActive})
}
