package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/quickhire/internal/domain/application"
	"github.com/geocoder89/quickhire/internal/http/middlewares"
	"github.com/geocoder89/quickhire/internal/marketplace"
	"github.com/gin-gonic/gin"
)

type ApplicationService interface {
	Apply(ctx context.Context, actor marketplace.Actor, jobID string, in marketplace.ApplyInput) (application.Application, error)
	ListApplicationsForJob(ctx context.Context, actor marketplace.Actor, jobID string) (marketplace.JobApplications, error)
	FreelancerDashboard(ctx context.Context, actor marketplace.Actor) (marketplace.FreelancerDashboard, error)
}

type ApplicationsHandler struct {
	svc ApplicationService
	log *slog.Logger
}

func NewApplicationsHandler(svc ApplicationService, log *slog.Logger) *ApplicationsHandler {
	return &ApplicationsHandler{svc: svc, log: log}
}

func (h *ApplicationsHandler) Apply(ctx *gin.Context) {
	jobID := ctx.Param("jobId")
	ctx.Set(middlewares.CtxJobID, jobID)

	var req marketplace.ApplyInput
	if !BindJSON(ctx, &req) {
		return
	}

	app, err := h.svc.Apply(ctx.Request.Context(), actorFrom(ctx), jobID, req)
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"application": app})
}

func (h *ApplicationsHandler) ListForJob(ctx *gin.Context) {
	jobID := ctx.Param("jobId")
	ctx.Set(middlewares.CtxJobID, jobID)

	res, err := h.svc.ListApplicationsForJob(ctx.Request.Context(), actorFrom(ctx), jobID)
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *ApplicationsHandler) FreelancerDashboard(ctx *gin.Context) {
	d, err := h.svc.FreelancerDashboard(ctx.Request.Context(), actorFrom(ctx))
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, d)
}
