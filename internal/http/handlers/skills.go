package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/quickhire/internal/domain/skill"
	"github.com/geocoder89/quickhire/internal/marketplace"
	"github.com/geocoder89/quickhire/internal/utils"
	"github.com/gin-gonic/gin"
)

type SkillService interface {
	ListSkills(ctx context.Context, ids []string) ([]skill.Skill, error)
	CreateSkill(ctx context.Context, actor marketplace.Actor, in marketplace.CreateSkillInput) (skill.Skill, bool, error)
	SeedSkills(ctx context.Context) (marketplace.SeedResult, error)
}

type SkillsHandler struct {
	svc SkillService
	log *slog.Logger
}

func NewSkillsHandler(svc SkillService, log *slog.Logger) *SkillsHandler {
	return &SkillsHandler{svc: svc, log: log}
}

// ListSkills serves GET /api/skills?ids=a,b.
func (h *SkillsHandler) ListSkills(ctx *gin.Context) {
	skills, err := h.svc.ListSkills(ctx.Request.Context(), utils.SplitCSV(ctx.QueryArray("ids")...))
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"skills": skills})
}

// CreateSkill answers 201 for a new skill and 200 when it already existed.
func (h *SkillsHandler) CreateSkill(ctx *gin.Context) {
	var req marketplace.CreateSkillInput
	if !BindJSON(ctx, &req) {
		return
	}

	s, created, err := h.svc.CreateSkill(ctx.Request.Context(), actorFrom(ctx), req)
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, gin.H{"skill": s, "created": created})
}

func (h *SkillsHandler) SeedSkills(ctx *gin.Context) {
	res, err := h.svc.SeedSkills(ctx.Request.Context())
	if err != nil {
		RespondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}
