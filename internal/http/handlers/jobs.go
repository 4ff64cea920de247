package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/quickhire/internal/domain/job"
	"github.com/geocoder89/quickhire/internal/http/middlewares"
	"github.com/geocoder89/quickhire/internal/marketplace"
	"github.com/geocoder89/quickhire/internal/utils"
	"github.com/gin-gonic/gin"
)

type JobService interface {
	CreateJob(ctx context.Context, actor marketplace.Actor, in marketplace.CreateJobInput) (job.Job, error)
	UpdateJob(ctx context.Context, actor marketplace.Actor, id string, in marketplace.UpdateJobInput) (job.Job, error)
	SetJobStatus(ctx context.Context, actor marketplace.Actor, id string, in marketplace.SetStatusInput) (job.Job, error)
	ArchiveJob(ctx context.Context, actor marketplace.Actor, id string) (job.Job, error)
	GetJob(ctx context.Context, id string) (job.Job, error)
	ListJobs(ctx context.Context, f job.Filter) (job.Page, error)
	EmployerDashboard(ctx context.Context, actor marketplace.Actor) (marketplace.EmployerDashboard, error)
}

type JobsHandler struct {
	svc JobService
	log *slog.Logger
}

func NewJobsHandler(svc JobService, log *slog.Logger) *JobsHandler {
	return &JobsHandler{svc: svc, log: log}
}

// ListJobs serves GET /api/jobs?search=&skills=a,b&status=&page=&limit=.
// skills may also be repeated.
func (h *JobsHandler) ListJobs(ctx *gin.Context) {
	f, err := marketplace.ParseJobFilter(marketplace.ListJobsQuery{
		Search: ctx.Query("search"),
		Skills: utils.SplitCSV(ctx.QueryArray("skills")...),
		Status: ctx.Query("status"),
		Page:   ctx.Query("page"),
		Limit:  ctx.Query("limit"),
	})
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	page, err := h.svc.ListJobs(ctx.Request.Context(), f)
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

func (h *JobsHandler) GetJob(ctx *gin.Context) {
	id := ctx.Param("id")
	ctx.Set(middlewares.CtxJobID, id)

	j, err := h.svc.GetJob(ctx.Request.Context(), id)
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"job": j})
}

func (h *JobsHandler) CreateJob(ctx *gin.Context) {
	var req marketplace.CreateJobInput
	if !BindJSON(ctx, &req) {
		return
	}

	j, err := h.svc.CreateJob(ctx.Request.Context(), actorFrom(ctx), req)
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.Set(middlewares.CtxJobID, j.ID)
	ctx.JSON(http.StatusCreated, gin.H{"job": j})
}

func (h *JobsHandler) UpdateJob(ctx *gin.Context) {
	id := ctx.Param("id")
	ctx.Set(middlewares.CtxJobID, id)

	var req marketplace.UpdateJobInput
	if !BindJSON(ctx, &req) {
		return
	}

	j, err := h.svc.UpdateJob(ctx.Request.Context(), actorFrom(ctx), id, req)
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"job": j})
}

func (h *JobsHandler) SetStatus(ctx *gin.Context) {
	id := ctx.Param("id")
	ctx.Set(middlewares.CtxJobID, id)

	var req marketplace.SetStatusInput
	if !BindJSON(ctx, &req) {
		return
	}

	j, err := h.svc.SetJobStatus(ctx.Request.Context(), actorFrom(ctx), id, req)
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"job": j})
}

func (h *JobsHandler) ArchiveJob(ctx *gin.Context) {
	id := ctx.Param("id")
	ctx.Set(middlewares.CtxJobID, id)

	if _, err := h.svc.ArchiveJob(ctx.Request.Context(), actorFrom(ctx), id); err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Job archived"})
}

func (h *JobsHandler) EmployerDashboard(ctx *gin.Context) {
	d, err := h.svc.EmployerDashboard(ctx.Request.Context(), actorFrom(ctx))
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, d)
}
