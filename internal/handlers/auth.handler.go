package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/wicaksono/laundry-pos/internal/model"
	xhttp "github.com/wicaksono/laundry-pos/pkg/http"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*model.User, string, error)
	Register(ctx context.Context, actor model.Actor, username, password, name string, role model.Role, phone string) (*model.User, error)
	Users(ctx context.Context, actor model.Actor) ([]*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
}

type AuthHandler struct {
	svc AuthService
}

func RegisterAuthRoutes(e *router.Group, h *AuthHandler) {
	e.POST("/auth/login", h.Login)
	e.POST("/auth/logout", h.Logout)
	e.GET("/auth/me", h.Me)
	e.POST("/users", h.CreateUser)
	e.GET("/users", h.ListUsers)
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{
		svc: svc,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

func (h *AuthHandler) Login(ctx *xhttp.RequestCtx) {
	var req loginRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	user, token, err := h.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, 200, loginResponse{Token: token, User: user})
}

// Logout acknowledges the client discarding its token. Tokens are
// stateless, so nothing is revoked server-side; deactivating the user
// account cuts access immediately regardless.
func (h *AuthHandler) Logout(ctx *xhttp.RequestCtx) {
	if _, ok := requireActor(ctx); !ok {
		return
	}
	writeJSON(ctx, 200, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) Me(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	user, err := h.svc.Get(ctx, actor.UserID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, user)
}

func (h *AuthHandler) CreateUser(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req createUserRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	user, err := h.svc.Register(ctx, actor, req.Username, req.Password, req.Name, model.Role(req.Role), req.Phone)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, user)
}

func (h *AuthHandler) ListUsers(ctx *xhttp.RequestCtx) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	users, err := h.svc.Users(ctx, actor)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, users)
}
