package meme

import (
	"context"
	"net/http"
	"net/url"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

const (
	maxDisplayName = 50
	maxBio         = 500
	maxAvatarURL   = 2048
)

// profileUpdateRequest holds the store values: nil for absent or null
// fields, a string otherwise.
type profileUpdateRequest struct {
	DisplayName any
	Bio         any
	AvatarURL   any
}

// optionalField reads a nullable string. present reports whether the body
// named the field at all, even as null.
func optionalField(body map[string]any, field string, max int) (v any, present bool, ferr *validate.FieldError) {
	raw, ok := body[field]
	if !ok {
		return nil, false, nil
	}
	if raw == nil {
		return nil, true, nil
	}
	s, ferr := validate.OptionalString(body, field, max)
	if ferr != nil {
		return nil, true, ferr
	}
	return s, true, nil
}

func decodeProfileUpdate(body map[string]any) (profileUpdateRequest, *validate.FieldError) {
	var in profileUpdateRequest
	fields := []struct {
		name string
		max  int
		dst  *any
	}{
		{"display_name", maxDisplayName, &in.DisplayName},
		{"bio", maxBio, &in.Bio},
		{"avatar_url", maxAvatarURL, &in.AvatarURL},
	}
	provided := 0
	for _, f := range fields {
		v, present, ferr := optionalField(body, f.name, f.max)
		if ferr != nil {
			return in, ferr
		}
		if present {
			provided++
		}
		*f.dst = v
	}
	if u, ok := in.AvatarURL.(string); ok && u != "" && !isHTTPURL(u) {
		return in, &validate.FieldError{Field: "avatar_url", Message: "avatar_url must be an http(s) URL"}
	}
	if provided == 0 {
		return in, &validate.FieldError{Field: "display_name", Message: "At least one of display_name, bio or avatar_url is required"}
	}
	return in, nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func (s *service) profileModule() *dispatch.Module {
	return dispatch.NewModule("profile", "",
		dispatch.Action{Name: "get", Handle: s.profileGet},
		dispatch.Action{Name: "memes", Handle: s.profileMemes},
		dispatch.Action{Name: "update", Handle: s.profileUpdate},
	)
}

func (s *service) profileGet(ctx context.Context, req dispatch.Request) httpapi.Response {
	id, ferr := validate.RequireUUID(req.Body, "user_id")
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_get_profile", rpc.Params{"p_user_id": id})
	if fail != nil {
		return *fail
	}
	profile, ok := res.First()
	if !ok {
		return httpapi.Error("Profile not found", http.StatusNotFound)
	}
	return httpapi.OK(gin.H{"profile": profile})
}

func (s *service) profileMemes(ctx context.Context, req dispatch.Request) httpapi.Response {
	id, ferr := validate.RequireUUID(req.Body, "user_id")
	if ferr != nil {
		return ferr.Response()
	}
	p, ferr := validate.Pagination(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_fetch_user_memes", rpc.Params{
		"p_user_id": id,
		"p_limit":   p.Limit,
		"p_cursor":  nullable(p.Cursor),
	})
	if fail != nil {
		return *fail
	}
	return page("memes", res, p.Limit)
}

func (s *service) profileUpdate(ctx context.Context, req dispatch.Request) httpapi.Response {
	uid, denied := actingUser(req)
	if denied != nil {
		return *denied
	}
	in, ferr := decodeProfileUpdate(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_update_profile", rpc.Params{
		"p_user_id":      uid,
		"p_display_name": in.DisplayName,
		"p_bio":          in.Bio,
		"p_avatar_url":   in.AvatarURL,
	})
	if fail != nil {
		return *fail
	}
	out := gin.H{"success": true}
	if profile, ok := res.First(); ok {
		out["profile"] = profile
	}
	return httpapi.OK(out)
}
