// Package vaultreader is the vault-reader edge function: service_role callers
// read and write encrypted secrets held by the store's vault.
package vaultreader

import (
	"context"
	"net/http"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/function"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rbac"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"
	"edge-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

const Name = "vault-reader"

type service struct {
	rpc rpc.Caller
}

// Dispatcher returns the get/set command table.
func Dispatcher(caller rpc.Caller) *dispatch.Flat {
	s := &service{rpc: caller}
	return dispatch.NewFlat(
		dispatch.Action{Name: "get", Handle: s.get},
		dispatch.Action{Name: "set", Handle: s.set},
	)
}

// New returns the vault-reader function.
func New(caller rpc.Caller) *function.Function {
	return &function.Function{
		Name: Name,
		Policy: rbac.Policy{
			Roles:       []string{rbac.RoleServiceRole},
			DenyMessage: "Access denied: Service role required",
		},
		Dispatcher: Dispatcher(caller),
	}
}

// failure reports a store error as a 500 carrying the store's message.
func failure(ctx context.Context, err error) httpapi.Response {
	msg, ok := rpc.ErrorMessage(err)
	if !ok {
		logger.From(ctx).Error("vault call failed", "err", err)
		return httpapi.InternalError()
	}
	return httpapi.Error(msg, http.StatusInternalServerError)
}

type setRequest struct {
	Name        string
	Value       string
	Description string
}

func decodeSet(body map[string]any) (setRequest, *validate.FieldError) {
	name, _ := body["secret_name"].(string)
	value, _ := body["secret_value"].(string)
	if name == "" || value == "" {
		return setRequest{}, &validate.FieldError{Field: "secret_name", Message: "secret_name and secret_value are required for set command"}
	}
	desc, ferr := validate.OptionalString(body, "secret_description", 1000)
	if ferr != nil {
		return setRequest{}, ferr
	}
	return setRequest{Name: name, Value: value, Description: desc}, nil
}

func (s *service) get(ctx context.Context, req dispatch.Request) httpapi.Response {
	id, _ := req.Body["secret_id"].(string)
	if id == "" {
		return httpapi.Error("secret_id is required for get command", http.StatusBadRequest)
	}
	if !validate.IsUUID(id) {
		return httpapi.Error("secret_id must be a valid UUID", http.StatusBadRequest)
	}
	res, err := s.rpc.Call(ctx, "get_vault_secret_by_id", rpc.Params{"secret_id": id})
	if err != nil {
		return failure(ctx, err)
	}
	row, ok := res.First()
	if !ok {
		return httpapi.Error("Secret not found", http.StatusNotFound)
	}
	return httpapi.OK(gin.H{
		"id":               row["id"],
		"name":             row["name"],
		"description":      row["description"],
		"decrypted_secret": row["decrypted_secret"],
		"created_at":       row["created_at"],
		"updated_at":       row["updated_at"],
	})
}

func (s *service) set(ctx context.Context, req dispatch.Request) httpapi.Response {
	in, ferr := decodeSet(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	var desc any
	if in.Description != "" {
		desc = in.Description
	}
	res, err := s.rpc.Call(ctx, "set_vault_secret", rpc.Params{
		"secret_name":        in.Name,
		"secret_value":       in.Value,
		"secret_description": desc,
	})
	if err != nil {
		return failure(ctx, err)
	}
	return httpapi.OK(gin.H{
		"success":   true,
		"secret_id": res,
		"message":   "Secret created/updated successfully",
	})
}
