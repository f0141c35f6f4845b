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

const (
	maxContainerSlots = 256
	maxContainerType  = 32
)

type containerKey struct {
	playerKey
	Type string
}

func decodeContainerKey(m map[string]any) (containerKey, *validate.FieldError) {
	pk, ferr := decodePlayerKey(m)
	if ferr != nil {
		return containerKey{}, ferr
	}
	t, _ := m["container_type"].(string)
	if t == "" || len(t) > maxContainerType || !validate.IsSlug(t) {
		return containerKey{}, fieldError("container_type", "container_type is required and must be a lowercase slug of at most %d characters", maxContainerType)
	}
	return containerKey{playerKey: pk, Type: t}, nil
}

func decodeContainerSave(body map[string]any) (map[string]any, *validate.FieldError) {
	c, ferr := validate.RequireObject(body, "container")
	if ferr != nil {
		return nil, ferr
	}
	if _, ferr := decodeContainerKey(c); ferr != nil {
		return nil, ferr
	}
	slots, ferr := validate.RequireArray(c, "slots", maxContainerSlots)
	if ferr != nil {
		return nil, ferr
	}
	for _, e := range slots {
		slot, ok := e.(map[string]any)
		if !ok {
			return nil, fieldError("slots", "each slot must be an object")
		}
		if _, ferr := validate.RequireIntRange(slot, "slot", 0, maxContainerSlots-1); ferr != nil {
			return nil, ferr
		}
	}
	return c, nil
}

func (s *service) containerModule() *dispatch.Module {
	return dispatch.NewModule("container", "",
		dispatch.Action{Name: "save", Handle: s.containerSave},
		dispatch.Action{Name: "load", Handle: s.containerLoad},
	)
}

func (s *service) containerSave(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	c, ferr := decodeContainerSave(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_save_container", rpc.Params{"p_container": c})
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	return httpapi.OK(gin.H{"success": true, "slots_saved": res})
}

func (s *service) containerLoad(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	key, ferr := decodeContainerKey(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	p := key.params()
	p["p_container_type"] = key.Type
	res, err := s.call(ctx, "service_load_container", p)
	if err != nil {
		return rpc.FailureAs(ctx, err, "found")
	}
	return loaded("container", res, false)
}
