package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/wicaksono/laundry-pos/internal/model"
	"github.com/wicaksono/laundry-pos/internal/services"
	xhttp "github.com/wicaksono/laundry-pos/pkg/http"
	"github.com/wicaksono/laundry-pos/pkg/logger"
)

const actorKey = "actor"

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response", "error", err)
		ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
		ctx.Response.SetStatusCode(500)
		ctx.Response.SetBodyRaw([]byte(`{"error":"internal server error"}`))
		return
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinels onto HTTP status codes. Anything
// that is not a known sentinel is an internal failure: it gets logged and
// the caller sees a generic 500, never the storage error text.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrServiceNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrUserNotFound):
		writeError(ctx, 404, err.Error())
	case errors.Is(err, services.ErrDuplicatePhone),
		errors.Is(err, services.ErrDuplicateUsername),
		errors.Is(err, services.ErrCustomerHasTransactions),
		errors.Is(err, services.ErrInvoiceConflict):
		writeError(ctx, 409, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		writeError(ctx, 403, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrUserInactive):
		writeError(ctx, 401, err.Error())
	case errors.Is(err, services.ErrInvalidArgument),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrDiscountExceedsTotal),
		errors.Is(err, services.ErrServiceInactive):
		writeError(ctx, 400, err.Error())
	default:
		logger.Error("unhandled service error", "path", string(ctx.Path()), "error", err)
		writeError(ctx, 500, "internal server error")
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, ok := ctx.UserValue(name).(string)
	if !ok {
		return 0, errors.New("missing path parameter " + name)
	}
	return strconv.ParseInt(v, 10, 64)
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func setActor(ctx *xhttp.RequestCtx, actor model.Actor) {
	ctx.SetUserValue(actorKey, actor)
}

func actorFrom(ctx *xhttp.RequestCtx) (model.Actor, bool) {
	actor, ok := ctx.UserValue(actorKey).(model.Actor)
	return actor, ok
}

// requireActor fetches the authenticated actor or ends the request. Routes
// behind the auth middleware always have one, this guards misconfiguration.
func requireActor(ctx *xhttp.RequestCtx) (model.Actor, bool) {
	actor, ok := actorFrom(ctx)
	if !ok {
		writeError(ctx, 401, "authentication required")
	}
	return actor, ok
}
