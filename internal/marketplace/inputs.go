package marketplace

import (
	"strings"

	"github.com/geocoder89/quickhire/internal/domain/skill"
	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/geocoder89/quickhire/internal/security"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required"`
}

func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = user.NormalizeEmail(in.Email)
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateJobInput struct {
	Title       string   `json:"title" validate:"required,min=5,max=100"`
	Description string   `json:"description" validate:"required,min=20,max=5000"`
	Budget      float64  `json:"budget" validate:"gt=0"`
	SkillIDs    []string `json:"skills" validate:"omitempty,dive,uuid"`
	SkillNames  []string `json:"skillNames" validate:"omitempty,dive,notblank,max=50"`
}

func (in *CreateJobInput) normalize() {
	in.Title = security.PlainText(in.Title)
	in.Description = security.PlainText(in.Description)
	in.SkillIDs = skill.Dedupe(in.SkillIDs)
	in.SkillNames = normalizeSkillNames(in.SkillNames)
}

func (in CreateJobInput) refs() skill.Refs {
	return skill.Refs{IDs: in.SkillIDs, Names: in.SkillNames}
}

// UpdateJobInput is a partial update; nil fields are left alone. A present
// skills or skillNames replaces the whole skill set.
type UpdateJobInput struct {
	Title       *string   `json:"title" validate:"omitempty,min=5,max=100"`
	Description *string   `json:"description" validate:"omitempty,min=20,max=5000"`
	Budget      *float64  `json:"budget" validate:"omitempty,gt=0"`
	Status      *string   `json:"status"`
	SkillIDs    *[]string `json:"skills" validate:"omitempty,dive,uuid"`
	SkillNames  *[]string `json:"skillNames" validate:"omitempty,dive,notblank,max=50"`
}

func (in *UpdateJobInput) normalize() {
	if in.Title != nil {
		v := security.PlainText(*in.Title)
		in.Title = &v
	}
	if in.Description != nil {
		v := security.PlainText(*in.Description)
		in.Description = &v
	}
	if in.SkillIDs != nil {
		v := skill.Dedupe(*in.SkillIDs)
		in.SkillIDs = &v
	}
	if in.SkillNames != nil {
		v := normalizeSkillNames(*in.SkillNames)
		in.SkillNames = &v
	}
}

func (in UpdateJobInput) refs() *skill.Refs {
	if in.SkillIDs == nil && in.SkillNames == nil {
		return nil
	}

	r := skill.Refs{}
	if in.SkillIDs != nil {
		r.IDs = *in.SkillIDs
	}
	if in.SkillNames != nil {
		r.Names = *in.SkillNames
	}
	return &r
}

type SetStatusInput struct {
	Status string `json:"status" validate:"required"`
}

type ApplyInput struct {
	Message string `json:"message" validate:"required,min=10,max=1000"`
}

type CreateSkillInput struct {
	Name string `json:"name" validate:"required,notblank,max=50"`
}

func normalizeSkillNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	for _, n := range names {
		n = skill.NormalizeName(security.PlainText(n))
		k := skill.Key(n)
		if _, ok := seen[k]; ok && k != "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return out
}
