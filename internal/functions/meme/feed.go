package meme

import (
	"context"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"
)

type feedListRequest struct {
	validate.Page
	Tag string
}

func decodeFeedList(body map[string]any) (feedListRequest, *validate.FieldError) {
	p, ferr := validate.Pagination(body)
	if ferr != nil {
		return feedListRequest{}, ferr
	}
	tag, ferr := validate.OptionalSlug(body, "tag", 50)
	if ferr != nil {
		return feedListRequest{}, ferr
	}
	return feedListRequest{Page: p, Tag: tag}, nil
}

func (s *service) feedModule() *dispatch.Module {
	return dispatch.NewModule("feed", "",
		dispatch.Action{Name: "list", Handle: s.feedList},
	)
}

func (s *service) feedList(ctx context.Context, req dispatch.Request) httpapi.Response {
	in, ferr := decodeFeedList(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_fetch_feed", rpc.Params{
		"p_limit":  in.Limit,
		"p_cursor": nullable(in.Cursor),
		"p_tag":    nullable(in.Tag),
	})
	if fail != nil {
		return *fail
	}
	return page("memes", res, in.Limit)
}
