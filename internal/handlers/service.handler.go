package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/wicaksono/laundry-pos/internal/model"
	xhttp "github.com/wicaksono/laundry-pos/pkg/http"
)

type CatalogService interface {
	Create(ctx context.Context, actor model.Actor, p model.ServiceCreateRequest) (*model.Service, error)
	Get(ctx context.Context, actor model.Actor, id int64) (*model.Service, error)
	List(ctx context.Context, actor model.Actor, f model.ServiceFilter) ([]*model.Service, int64, error)
	Update(ctx context.Context, actor model.Actor, id int64, p model.ServiceUpdateRequest) (*model.Service, error)
	Delete(ctx context.Context, actor model.Actor, id int64) error
}

type ServiceHandler struct {
	svc CatalogService
}

func RegisterServiceRoutes(e *router.Group, h *ServiceHandler) {
	e.POST("/services", h.Create)
	e.GET("/services", h.List)
	e.GET("/services/{id}", h.Get)
	e.PATCH("/services/{id}", h.Update)
	e.DELETE("/services/{id}", h.Delete)
}

func NewServiceHandler(svc CatalogService) *ServiceHandler {
	return &ServiceHandler{
		svc: svc,
	}
}

type serviceListResponse struct {
	Items []*model.Service `json:"items"`
	Total int64            `json:"total"`
}

func (h *ServiceHandler) Create(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req model.ServiceCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	svc, err := h.svc.Create(ctx, actor, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, svc)
}

func (h *ServiceHandler) List(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var f model.ServiceFilter
	if v := query(ctx, "type"); v != "" {
		typ := model.ServiceType(v)
		f.Type = &typ
	}
	if v := query(ctx, "active"); v != "" {
		if b, e := strconv.ParseBool(v); e == nil {
			f.IsActive = &b
		}
	}
	f.Search = query(ctx, "search")
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}

	items, total, err := h.svc.List(ctx, actor, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, serviceListResponse{Items: items, Total: total})
}

func (h *ServiceHandler) Get(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid service id")
		return
	}

	svc, err := h.svc.Get(ctx, actor, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, svc)
}

func (h *ServiceHandler) Update(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid service id")
		return
	}

	var req model.ServiceUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	svc, err := h.svc.Update(ctx, actor, id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, svc)
}

func (h *ServiceHandler) Delete(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid service id")
		return
	}

	if err := h.svc.Delete(ctx, actor, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(204)
}
