package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/wicaksono/laundry-pos/internal/model"
	xhttp "github.com/wicaksono/laundry-pos/pkg/http"
)

type ReportService interface {
	Report(ctx context.Context, actor model.Actor, q model.ReportQuery) (*model.ReportSummary, error)
	Dashboard(ctx context.Context, actor model.Actor) (*model.DashboardStats, error)
}

type ReportHandler struct {
	svc ReportService
}

func RegisterReportRoutes(e *router.Group, h *ReportHandler) {
	e.GET("/reports", h.Report)
	e.GET("/dashboard", h.Dashboard)
}

func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{
		svc: svc,
	}
}

func (h *ReportHandler) Report(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	q := model.ReportQuery{Period: model.PeriodDaily}
	if v := query(ctx, "period"); v != "" {
		q.Period = model.Period(v)
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			q.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			// A bare date means "through the end of that day".
			if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
				t = t.AddDate(0, 0, 1)
			}
			q.To = &t
		}
	}

	summary, err := h.svc.Report(ctx, actor, q)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, summary)
}

func (h *ReportHandler) Dashboard(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	stats, err := h.svc.Dashboard(ctx, actor)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, stats)
}
