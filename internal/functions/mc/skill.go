package mc

import (
	"context"
	"regexp"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rbac"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

const (
	maxSkills   = 200
	maxCategory = 4
)

var skillIDPattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

func decodeSkillTree(body map[string]any) (map[string]any, *validate.FieldError) {
	tree, ferr := validate.RequireObject(body, "skill_tree")
	if ferr != nil {
		return nil, ferr
	}
	if _, ferr := decodePlayerKey(tree); ferr != nil {
		return nil, ferr
	}
	skills, ok := tree["skills"].([]any)
	if !ok {
		return nil, fieldError("skills", "skills must be an array")
	}
	if len(skills) > maxSkills {
		return nil, fieldError("skills", "Skill tree exceeds limit of %d skills", maxSkills)
	}
	for _, e := range skills {
		sk, _ := e.(map[string]any)
		id, _ := sk["skill_id"].(string)
		if !skillIDPattern.MatchString(id) {
			return nil, fieldError("skill_id", "Invalid skill_id: %v. Must be 1-64 lowercase alphanumeric/underscores.", sk["skill_id"])
		}
		if _, present := sk["category"]; present {
			if c, ok := validate.AsInt(sk["category"]); !ok || c < 0 || c > maxCategory {
				return nil, fieldError("category", "Invalid category for skill %s. Must be 0-4.", id)
			}
		}
		if _, present := sk["experience"]; present {
			if xp, ok := validate.AsInt(sk["experience"]); !ok || xp < 0 {
				return nil, fieldError("experience", "experience for skill %s must be non-negative", id)
			}
		}
	}
	return tree, nil
}

type skillXPRequest struct {
	playerKey
	SkillID  string
	Category int
	XP       int
}

func decodeSkillXP(body map[string]any) (skillXPRequest, *validate.FieldError) {
	key, ferr := decodePlayerKey(body)
	if ferr != nil {
		return skillXPRequest{}, ferr
	}
	id, _ := body["skill_id"].(string)
	if !skillIDPattern.MatchString(id) {
		return skillXPRequest{}, fieldError("skill_id", "skill_id is required and must be 1-64 lowercase alphanumeric/underscores")
	}
	// An absent category is stored as 0.
	var c int
	if _, present := body["category"]; present {
		n, ok := validate.AsInt(body["category"])
		if !ok || n < 0 || n > maxCategory {
			return skillXPRequest{}, fieldError("category", "category must be 0-4")
		}
		c = n
	}
	xp, ferr := decodeXP(body)
	if ferr != nil {
		return skillXPRequest{}, ferr
	}
	return skillXPRequest{playerKey: key, SkillID: id, Category: c, XP: xp}, nil
}

func (s *service) skillModule() *dispatch.Module {
	return dispatch.NewModule("skill", "",
		dispatch.Action{Name: "save", Handle: s.skillSave},
		dispatch.Action{Name: "load", Handle: s.skillLoad},
		dispatch.Action{Name: "add_xp", Handle: s.skillAddXP},
	)
}

func (s *service) skillSave(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	tree, ferr := decodeSkillTree(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_save_skill_tree", rpc.Params{"p_skill_tree": tree})
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	return httpapi.OK(gin.H{"success": true, "skills_saved": res})
}

func (s *service) skillLoad(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	key, ferr := decodePlayerKey(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, err := s.call(ctx, "service_load_skill_tree", key.params())
	if err != nil {
		return rpc.FailureAs(ctx, err, "found")
	}
	return loaded("skills", res, true)
}

func (s *service) skillAddXP(ctx context.Context, req dispatch.Request) httpapi.Response {
	if denied := rbac.RequireServiceRole(req.Claims); denied != nil {
		return *denied
	}
	in, ferr := decodeSkillXP(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	p := in.params()
	p["p_skill_id"] = in.SkillID
	p["p_category"] = in.Category
	p["p_xp_amount"] = in.XP
	res, err := s.call(ctx, "service_add_skill_xp", p)
	if err != nil {
		return rpc.Failure(ctx, err)
	}
	row, ok := res.First()
	if !ok {
		return httpapi.Failure("Skill XP operation failed")
	}
	return httpapi.OK(gin.H{
		"success":          true,
		"skill_id":         in.SkillID,
		"new_level":        row["new_level"],
		"total_experience": row["total_experience"],
		"leveled_up":       row["leveled_up"],
	})
}
