package marketplace

import (
	"context"

	"github.com/geocoder89/quickhire/internal/domain/skill"
	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/geocoder89/quickhire/internal/security"
	"github.com/geocoder89/quickhire/internal/utils"
	"github.com/geocoder89/quickhire/internal/validation"
)

type SeedResult struct {
	Skills  []skill.Skill `json:"skills"`
	Created int           `json:"created"`
}

// ListSkills returns every skill, or the subset named by ids. Results are
// served from a short TTL cache that writes invalidate.
func (s *Service) ListSkills(ctx context.Context, ids []string) ([]skill.Skill, error) {
	ids = skill.Dedupe(ids)
	for _, id := range ids {
		if !utils.IsUUID(id) {
			return nil, fieldError("ids", "uuid", "")
		}
	}

	key := utils.BuildSkillsListCacheKey(ids)
	if v, ok := s.skillCache.Get(key); ok {
		if cached, ok := v.([]skill.Skill); ok {
			return cached, nil
		}
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	skills, err := s.skills.ListSkills(cctx, ids)
	if err != nil {
		return nil, internal("list skills", err)
	}
	if skills == nil {
		skills = []skill.Skill{}
	}

	s.skillCache.Set(key, skills)
	return skills, nil
}

// CreateSkill is create-if-absent: created is false when a skill with the
// same name, ignoring case, already exists.
func (s *Service) CreateSkill(ctx context.Context, actor Actor, in CreateSkillInput) (skill.Skill, bool, error) {
	if err := requireRole(actor, user.RoleEmployer); err != nil {
		return skill.Skill{}, false, err
	}

	in.Name = skill.NormalizeName(security.PlainText(in.Name))
	if fields := validation.Struct(in); len(fields) > 0 {
		return skill.Skill{}, false, validationError(fields)
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sk, created, err := s.skills.UpsertSkill(cctx, in.Name)
	if err != nil {
		return skill.Skill{}, false, internal("create skill", err)
	}

	if created {
		s.invalidateSkills()
		s.log.InfoContext(ctx, "skill_created", "skill_id", sk.ID, "name", sk.Name)
	}
	return sk, created, nil
}

// SeedSkills makes sure the starter set exists. Safe to run repeatedly.
func (s *Service) SeedSkills(ctx context.Context) (SeedResult, error) {
	res := SeedResult{Skills: make([]skill.Skill, 0, len(skill.StarterSet))}

	for _, name := range skill.StarterSet {
		cctx, cancel := s.withTimeout(ctx)
		sk, created, err := s.skills.UpsertSkill(cctx, name)
		cancel()

		if err != nil {
			return SeedResult{}, internal("seed skills", err)
		}
		if created {
			res.Created++
		}
		res.Skills = append(res.Skills, sk)
	}

	if res.Created > 0 {
		s.invalidateSkills()
	}

	s.log.InfoContext(ctx, "skills_seeded", "created", res.Created, "total", len(res.Skills))
	return res, nil
}

func (s *Service) invalidateSkills() {
	s.skillCache.DeletePrefix(utils.SkillsCachePrefix)
}
