package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/wicaksono/laundry-pos/internal/model"
	xhttp "github.com/wicaksono/laundry-pos/pkg/http"
)

type CustomerService interface {
	Create(ctx context.Context, actor model.Actor, p model.CustomerCreateRequest) (*model.Customer, error)
	Get(ctx context.Context, actor model.Actor, id int64) (*model.Customer, error)
	List(ctx context.Context, actor model.Actor, f model.CustomerFilter) ([]*model.Customer, int64, error)
	Update(ctx context.Context, actor model.Actor, id int64, p model.CustomerUpdateRequest) (*model.Customer, error)
	Delete(ctx context.Context, actor model.Actor, id int64) error
}

// TransactionLister backs the per-customer history endpoint.
type TransactionLister interface {
	List(ctx context.Context, actor model.Actor, f model.TransactionFilter) ([]*model.Transaction, int64, error)
}

type CustomerHandler struct {
	svc CustomerService
	txs TransactionLister
}

func RegisterCustomerRoutes(e *router.Group, h *CustomerHandler) {
	e.POST("/customers", h.Create)
	e.GET("/customers", h.List)
	e.GET("/customers/{id}", h.Get)
	e.PATCH("/customers/{id}", h.Update)
	e.DELETE("/customers/{id}", h.Delete)
	e.GET("/customers/{id}/transactions", h.Transactions)
}

func NewCustomerHandler(svc CustomerService, txs TransactionLister) *CustomerHandler {
	return &CustomerHandler{
		svc: svc,
		txs: txs,
	}
}

type customerListResponse struct {
	Items []*model.Customer `json:"items"`
	Total int64             `json:"total"`
}

func (h *CustomerHandler) Create(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req model.CustomerCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	customer, err := h.svc.Create(ctx, actor, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, customer)
}

func (h *CustomerHandler) List(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var f model.CustomerFilter
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
	writeJSON(ctx, 200, customerListResponse{Items: items, Total: total})
}

func (h *CustomerHandler) Get(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid customer id")
		return
	}

	customer, err := h.svc.Get(ctx, actor, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, customer)
}

func (h *CustomerHandler) Update(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid customer id")
		return
	}

	var req model.CustomerUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	customer, err := h.svc.Update(ctx, actor, id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, customer)
}

func (h *CustomerHandler) Delete(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid customer id")
		return
	}

	if err := h.svc.Delete(ctx, actor, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(204)
}

func (h *CustomerHandler) Transactions(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid customer id")
		return
	}

	// 404 for unknown customers instead of an empty history
	if _, err := h.svc.Get(ctx, actor, id); err != nil {
		writeServiceError(ctx, err)
		return
	}

	f := model.TransactionFilter{CustomerID: &id}
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

	items, total, err := h.txs.List(ctx, actor, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, transactionListResponse{Items: items, Total: total})
}
