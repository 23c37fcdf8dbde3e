package handlers

import (
	"context"
	"strings"

	"github.com/wicaksono/laundry-pos/internal/model"
	xhttp "github.com/wicaksono/laundry-pos/pkg/http"
)

// TokenVerifier resolves a bearer token to the acting user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.User, error)
}

// openPaths are reachable without a token.
var openPaths = []string{"/health", "/metrics", "/api/v1/health", "/api/v1/auth/login"}

// AuthMiddleware authenticates every request outside the open paths and
// stashes the resulting actor on the request context.
func AuthMiddleware(verifier TokenVerifier) xhttp.MiddlewareFunc {
	return func(next xhttp.RequestHandler) xhttp.RequestHandler {
		return func(ctx *xhttp.RequestCtx) {
			path := string(ctx.Path())
			for _, open := range openPaths {
				if path == open {
					next(ctx)
					return
				}
			}

			token := bearerToken(ctx)
			if token == "" {
				writeError(ctx, 401, "authorization header required")
				return
			}

			user, err := verifier.Verify(ctx, token)
			if err != nil {
				writeServiceError(ctx, err)
				return
			}

			setActor(ctx, model.Actor{UserID: user.ID, Role: user.Role})
			next(ctx)
		}
	}
}

func bearerToken(ctx *xhttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
