// Package mc is the Minecraft edge function. The game server calls it with a
// service_role token to persist player state; players call the auth module
// with their own token to link accounts.
package mc

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/function"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"
)

const Name = "mc"

var mcUUIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

type service struct {
	rpc rpc.Caller
}

// Registry returns the mc module registry.
func Registry(caller rpc.Caller) *dispatch.Registry {
	s := &service{rpc: caller}
	return dispatch.NewRegistry(
		s.authModule(),
		s.playerModule(),
		s.containerModule(),
		s.transferModule(),
		s.characterModule(),
		s.skillModule(),
	)
}

// New returns the mc function. Any verified token gets in; each action then
// decides between player tokens and service_role.
func New(caller rpc.Caller) *function.Function {
	return &function.Function{
		Name:       Name,
		Dispatcher: Registry(caller),
	}
}

func (s *service) call(ctx context.Context, name string, p rpc.Params) (rpc.Result, error) {
	return s.rpc.Call(ctx, name, p)
}

func fieldError(field, format string, args ...any) *validate.FieldError {
	return &validate.FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// isMcUUID accepts the dashed form and the 32-hex form the game APIs return.
func isMcUUID(s string) bool {
	return validate.IsUUID(s) || mcUUIDPattern.MatchString(s)
}

func requireMcUUID(m map[string]any, field string) (string, *validate.FieldError) {
	s, _ := m[field].(string)
	if s == "" {
		return "", fieldError(field, "%s is required", field)
	}
	if !isMcUUID(s) {
		return "", fieldError(field, "%s must be a valid Minecraft UUID", field)
	}
	return s, nil
}

func requireNonEmpty(m map[string]any, field string) (string, *validate.FieldError) {
	s, _ := m[field].(string)
	if strings.TrimSpace(s) == "" {
		return "", fieldError(field, "%s is required", field)
	}
	return s, nil
}

// playerKey is the (player_uuid, server_id) pair most mc actions address.
type playerKey struct {
	PlayerUUID string
	ServerID   string
}

func decodePlayerKey(m map[string]any) (playerKey, *validate.FieldError) {
	id, ferr := requireMcUUID(m, "player_uuid")
	if ferr != nil {
		return playerKey{}, ferr
	}
	srv, ferr := requireNonEmpty(m, "server_id")
	if ferr != nil {
		return playerKey{}, ferr
	}
	return playerKey{PlayerUUID: id, ServerID: srv}, nil
}

func (k playerKey) params() rpc.Params {
	return rpc.Params{"p_player_uuid": k.PlayerUUID, "p_server_id": k.ServerID}
}

// loaded renders a load result as {found, key: value}.
func loaded(key string, res rpc.Result, many bool) httpapi.Response {
	if res.IsEmpty() {
		if many {
			return httpapi.OK(map[string]any{"found": false, key: []any{}})
		}
		return httpapi.OK(map[string]any{"found": false})
	}
	if many {
		v := res.Value()
		if _, ok := v.([]any); !ok {
			v = []any{v}
		}
		return httpapi.OK(map[string]any{"found": true, key: v})
	}
	if row, ok := res.First(); ok {
		return httpapi.OK(map[string]any{"found": true, key: row})
	}
	return httpapi.OK(map[string]any{"found": true, key: res})
}
