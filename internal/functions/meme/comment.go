package meme

import (
	"context"
	"net/http"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

const maxCommentLength = 500

type commentListRequest struct {
	validate.Page
	ParentID string
}

func decodeCommentList(body map[string]any, parentField string) (commentListRequest, *validate.FieldError) {
	id, ferr := validate.RequireULID(body, parentField)
	if ferr != nil {
		return commentListRequest{}, ferr
	}
	p, ferr := validate.Pagination(body)
	if ferr != nil {
		return commentListRequest{}, ferr
	}
	return commentListRequest{Page: p, ParentID: id}, nil
}

type commentCreateRequest struct {
	MemeID   string
	Body     string
	ParentID string
}

func decodeCommentCreate(body map[string]any) (commentCreateRequest, *validate.FieldError) {
	memeID, ferr := validate.RequireULID(body, "meme_id")
	if ferr != nil {
		return commentCreateRequest{}, ferr
	}
	text, ferr := validate.TrimmedLength(body, "body", 1, maxCommentLength)
	if ferr != nil {
		return commentCreateRequest{}, ferr
	}
	parent, ferr := validate.OptionalULID(body, "parent_id")
	if ferr != nil {
		return commentCreateRequest{}, ferr
	}
	return commentCreateRequest{MemeID: memeID, Body: text, ParentID: parent}, nil
}

func (s *service) commentModule() *dispatch.Module {
	return dispatch.NewModule("comment", "",
		dispatch.Action{Name: "list", Handle: s.commentList},
		dispatch.Action{Name: "replies", Handle: s.commentReplies},
		dispatch.Action{Name: "create", Handle: s.commentCreate},
		dispatch.Action{Name: "delete", Handle: s.commentDelete},
	)
}

func (s *service) commentList(ctx context.Context, req dispatch.Request) httpapi.Response {
	in, ferr := decodeCommentList(req.Body, "meme_id")
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_fetch_comments", rpc.Params{
		"p_meme_id": in.ParentID,
		"p_limit":   in.Limit,
		"p_cursor":  nullable(in.Cursor),
	})
	if fail != nil {
		return *fail
	}
	return page("comments", res, in.Limit)
}

func (s *service) commentReplies(ctx context.Context, req dispatch.Request) httpapi.Response {
	in, ferr := decodeCommentList(req.Body, "parent_id")
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_fetch_replies", rpc.Params{
		"p_parent_id": in.ParentID,
		"p_limit":     in.Limit,
		"p_cursor":    nullable(in.Cursor),
	})
	if fail != nil {
		return *fail
	}
	return page("replies", res, in.Limit)
}

func (s *service) commentCreate(ctx context.Context, req dispatch.Request) httpapi.Response {
	uid, denied := actingUser(req)
	if denied != nil {
		return *denied
	}
	in, ferr := decodeCommentCreate(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_create_comment", rpc.Params{
		"p_user_id":   uid,
		"p_meme_id":   in.MemeID,
		"p_body":      in.Body,
		"p_parent_id": nullable(in.ParentID),
	})
	if fail != nil {
		return *fail
	}
	return httpapi.OK(gin.H{"success": true, "comment_id": res})
}

func (s *service) commentDelete(ctx context.Context, req dispatch.Request) httpapi.Response {
	uid, denied := actingUser(req)
	if denied != nil {
		return *denied
	}
	id, ferr := validate.RequireULID(req.Body, "comment_id")
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_delete_comment", rpc.Params{"p_user_id": uid, "p_comment_id": id})
	if fail != nil {
		return *fail
	}
	// The procedure returns false (or nothing) when no row matched the caller.
	if deleted, _ := res.Value().(bool); !deleted {
		return httpapi.Error("Comment not found or not yours", http.StatusNotFound)
	}
	return httpapi.OK(gin.H{"success": true})
}
