package meme

import (
	"context"

	"edge-gateway/internal/dispatch"
	"edge-gateway/internal/httpapi"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/validate"

	"github.com/gin-gonic/gin"
)

const maxReportDetail = 2000

type reportCreateRequest struct {
	MemeID string
	Reason int
	Detail string
}

func decodeReportCreate(body map[string]any) (reportCreateRequest, *validate.FieldError) {
	id, ferr := validate.RequireULID(body, "meme_id")
	if ferr != nil {
		return reportCreateRequest{}, ferr
	}
	reason, ferr := validate.RequireIntRange(body, "reason", 1, 7)
	if ferr != nil {
		return reportCreateRequest{}, ferr
	}
	detail, ferr := validate.OptionalString(body, "detail", maxReportDetail)
	if ferr != nil {
		return reportCreateRequest{}, ferr
	}
	return reportCreateRequest{MemeID: id, Reason: reason, Detail: detail}, nil
}

func (s *service) reportModule() *dispatch.Module {
	return dispatch.NewModule("report", "",
		dispatch.Action{Name: "create", Handle: s.reportCreate},
	)
}

func (s *service) reportCreate(ctx context.Context, req dispatch.Request) httpapi.Response {
	uid, denied := actingUser(req)
	if denied != nil {
		return *denied
	}
	in, ferr := decodeReportCreate(req.Body)
	if ferr != nil {
		return ferr.Response()
	}
	res, fail := s.call(ctx, "meme_report", rpc.Params{
		"p_user_id": uid,
		"p_meme_id": in.MemeID,
		"p_reason":  in.Reason,
		"p_detail":  nullable(in.Detail),
	})
	if fail != nil {
		return *fail
	}
	return httpapi.OK(gin.H{"success": true, "report_id": res})
}
