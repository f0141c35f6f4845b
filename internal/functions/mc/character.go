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

const maxStat = 1000

var baseStats = []string{"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma"}

func decodeCharacter(body map[string]any) (map[string]any, *validate.FieldError) {
	ch, ferr := validate.RequireObject(body, "character")
	if ferr != nil {
		return nil, ferr
	}
	if _, ferr := decodePlayerKey(ch); ferr != nil {
		return nil, ferr
	}
	if _, ok := ch["experience"]; ok {
		if n, ok := validate.AsInt(ch["experience"]); !ok || n < 0 {
			return nil, fieldError("experience", "experience must be a non-negative integer")
		}
	}
	if _, ok := ch["base_stats"]; ok {
		stats, ferr := validate.RequireObject(ch, "base_stats")
		if ferr != nil {
			return nil, ferr
		}
		for _, name := range baseStats {
			if _, ok := stats[name]; !ok {
				continue
			}
			if _, ferr := validate.RequireIntRange(stats, name, 0, maxStat); ferr != nil {
				return nil, ferr
			}
		}
	}
	return ch, nil
}

func decodeXP(body map[string]any) (int, *validate.FieldError) {
	n, ok := validate.AsInt(body["xp_amount"])
	if !ok || n <= 0 {
		return 0, fieldError("xp_amount", "xp_amount must be a positive integer")
	}
	return n, nil
}

func (s *service) characterModule() *dispatch.Module {
	return dispatch.NewModule("character", "",
		dispatch.Action{Name: "save", Handle: s.characterSave},
		dispatch.Action{Name: "load", Handle: s.characterLoad},
		dispatch.Action{Name: "add_xp", Handle: s.characterAddXP},
	)
}

func (s *service) characterSave(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	ch, ferr := decodeCharacter(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	if _, err := s.call(ctx, "service_save_character", rpc.Params{"p_character": ch}); err != nil {
		return rpc.Failure(ctx, err)
	}
	return httpapi.OK(gin.H{"success": true})
}

func (s *service) characterLoad(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	key, ferr := decodePlayerKey(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_load_character", key.params())
	if err != nil {
		return rpc.FailureAs(ctx, err, "found")
	}
	return loaded("character", res, false)
}

func (s *service) characterAddXP(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	key, ferr := decodePlayerKey(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	xp, ferr := decodeXP(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	p := key.params()
	p["p_xp_amount"] = xp
	res, err := s.call(ctx, "service_add_character_xp", p)
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	row, ok := res.First()
	if !ok {
		return httpapi.Failure("Character XP operation failed")
	}
	return httpapi.OK(gin.H{
		"success":          true,
		"new_level":        row["new_level"],
		"total_experience": row["total_experience"],
		"leveled_up":       row["leveled_up"],
	})
}
