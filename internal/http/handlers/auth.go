package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/geocoder89/quickhire/internal/marketplace"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, in marketplace.RegisterInput) (marketplace.AuthResult, error)
	Login(ctx context.Context, in marketplace.LoginInput) (marketplace.AuthResult, error)
	Me(ctx context.Context, actor marketplace.Actor) (user.User, error)
}

type AuthHandler struct {
	svc AuthService
	log *slog.Logger
}

func NewAuthHandler(svc AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req marketplace.RegisterInput
	if !BindJSON(ctx, &req) {
		return
	}

	res, err := h.svc.Register(ctx.Request.Context(), req)
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req marketplace.LoginInput
	if !BindJSON(ctx, &req) {
		return
	}

	res, err := h.svc.Login(ctx.Request.Context(), req)
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	u, err := h.svc.Me(ctx.Request.Context(), actorFrom(ctx))
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}
