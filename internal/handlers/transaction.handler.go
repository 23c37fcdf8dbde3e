package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/shopspring/decimal"
	"github.com/wicaksono/laundry-pos/internal/invoice"
	"github.com/wicaksono/laundry-pos/internal/model"
	xhttp "github.com/wicaksono/laundry-pos/pkg/http"
)

type TransactionService interface {
	Create(ctx context.Context, actor model.Actor, p model.TransactionCreateRequest) (*model.Transaction, error)
	Get(ctx context.Context, actor model.Actor, id int64) (*model.Transaction, error)
	List(ctx context.Context, actor model.Actor, f model.TransactionFilter) ([]*model.Transaction, int64, error)
	Update(ctx context.Context, actor model.Actor, id int64, p model.TransactionUpdateRequest) (*model.Transaction, error)
	UpdateStatus(ctx context.Context, actor model.Actor, id int64, status model.Status) (*model.Transaction, error)
	Delete(ctx context.Context, actor model.Actor, id int64) error
	AddItem(ctx context.Context, actor model.Actor, transactionID int64, req model.TransactionItemRequest) (*model.Transaction, error)
	UpdateItemQuantity(ctx context.Context, actor model.Actor, transactionID, itemID int64, quantity decimal.Decimal) (*model.Transaction, error)
	RemoveItem(ctx context.Context, actor model.Actor, transactionID, itemID int64) (*model.Transaction, error)
	Snapshot(ctx context.Context, actor model.Actor, id int64) (*model.InvoiceSnapshot, error)
}

// ReceiptRenderer produces the downloadable receipt bytes.
type ReceiptRenderer interface {
	Render(snap *model.InvoiceSnapshot) ([]byte, error)
}

type TransactionHandler struct {
	svc      TransactionService
	renderer ReceiptRenderer
}

func RegisterTransactionRoutes(e *router.Group, h *TransactionHandler) {
	e.POST("/transactions", h.Create)
	e.GET("/transactions", h.List)
	e.GET("/transactions/{id}", h.Get)
	e.PATCH("/transactions/{id}", h.Update)
	e.DELETE("/transactions/{id}", h.Delete)
	e.PATCH("/transactions/{id}/status", h.UpdateStatus)
	e.POST("/transactions/{id}/items", h.AddItem)
	e.PATCH("/transactions/{id}/items/{itemId}", h.UpdateItem)
	e.DELETE("/transactions/{id}/items/{itemId}", h.RemoveItem)
	e.GET("/transactions/{id}/invoice", h.DownloadInvoice)
}

func NewTransactionHandler(svc TransactionService, renderer ReceiptRenderer) *TransactionHandler {
	return &TransactionHandler{
		svc:      svc,
		renderer: renderer,
	}
}

type transactionListResponse struct {
	Items []*model.Transaction `json:"items"`
	Total int64                `json:"total"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateItemRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

func (h *TransactionHandler) Create(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req model.TransactionCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	tx, err := h.svc.Create(ctx, actor, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, tx)
}

func (h *TransactionHandler) List(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var f model.TransactionFilter
	if v := query(ctx, "customer_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.CustomerID = &id
		}
	}
	if v := query(ctx, "status"); v != "" {
		status := model.Status(v)
		if !status.Valid() {
			writeError(ctx, 400, "invalid status filter")
			return
		}
		f.Status = &status
	}
	f.Search = query(ctx, "search")
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
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
	writeJSON(ctx, 200, transactionListResponse{Items: items, Total: total})
}

func (h *TransactionHandler) Get(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid transaction id")
		return
	}

	tx, err := h.svc.Get(ctx, actor, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, tx)
}

func (h *TransactionHandler) Update(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid transaction id")
		return
	}

	var req model.TransactionUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	tx, err := h.svc.Update(ctx, actor, id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, tx)
}

func (h *TransactionHandler) UpdateStatus(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid transaction id")
		return
	}

	var req updateStatusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	tx, err := h.svc.UpdateStatus(ctx, actor, id, model.Status(req.Status))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, tx)
}

func (h *TransactionHandler) Delete(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid transaction id")
		return
	}

	if err := h.svc.Delete(ctx, actor, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(204)
}

func (h *TransactionHandler) AddItem(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid transaction id")
		return
	}

	var req model.TransactionItemRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	tx, err := h.svc.AddItem(ctx, actor, id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, tx)
}

func (h *TransactionHandler) UpdateItem(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid transaction id")
		return
	}
	itemID, err := pathInt64(ctx, "itemId")
	if err != nil {
		writeError(ctx, 400, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	tx, err := h.svc.UpdateItemQuantity(ctx, actor, id, itemID, req.Quantity)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, tx)
}

func (h *TransactionHandler) RemoveItem(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid transaction id")
		return
	}
	itemID, err := pathInt64(ctx, "itemId")
	if err != nil {
		writeError(ctx, 400, "invalid item id")
		return
	}

	tx, err := h.svc.RemoveItem(ctx, actor, id, itemID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, tx)
}

// DownloadInvoice renders the receipt on demand and streams it back.
func (h *TransactionHandler) DownloadInvoice(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid transaction id")
		return
	}

	snap, err := h.svc.Snapshot(ctx, actor, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	data, err := h.renderer.Render(snap)
	if err != nil {
		writeError(ctx, 500, "failed to render invoice")
		return
	}

	ctx.Response.Header.Set("Content-Type", "application/pdf")
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+invoice.ArtifactName(snap.InvoiceNumber)+`"`)
	ctx.Response.SetStatusCode(200)
	ctx.Response.SetBodyRaw(data)
}
