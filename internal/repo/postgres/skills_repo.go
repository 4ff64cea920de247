package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/quickhire/internal/domain/skill"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SkillsRepo struct {
	base
}

func NewSkillsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SkillsRepo {
	return &SkillsRepo{base{pool: pool, prom: prom}}
}

func (r *SkillsRepo) ListSkills(ctx context.Context, ids []string) ([]skill.Skill, error) {
	sql := `SELECT id, name FROM skills`
	args := []any{}

	ids = skill.Dedupe(ids)
	if len(ids) > 0 {
		sql += ` WHERE id::text = ANY($1)`
		args = append(args, ids)
	}
	sql += ` ORDER BY lower(name) ASC`

	var rows pgx.Rows

	err := r.observe("skills.list", func() error {
		var err error
		rows, err = r.pool.Query(ctx, sql, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]skill.Skill, 0)
	for rows.Next() {
		var s skill.Skill
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

func (r *SkillsRepo) UpsertSkill(ctx context.Context, name string) (skill.Skill, bool, error) {
	return upsertSkill(ctx, r.base, r.pool, name)
}

// upsertSkill inserts name unless a case-insensitive match exists, in which
// case the existing row wins.
func upsertSkill(ctx context.Context, b base, q querier, name string) (skill.Skill, bool, error) {
	name = skill.NormalizeName(name)

	var s skill.Skill

	err := b.observe("skills.upsert.insert", func() error {
		return q.QueryRow(ctx, `
		INSERT INTO skills (id, name, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT ((lower(name))) DO NOTHING
		RETURNING id, name
	`, uuid.NewString(), name).Scan(&s.ID, &s.Name)
	})

	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return skill.Skill{}, false, err
	}

	err = b.observe("skills.upsert.select", func() error {
		return q.QueryRow(ctx, `SELECT id, name FROM skills WHERE lower(name) = lower($1)`, name).Scan(&s.ID, &s.Name)
	})
	if err != nil {
		return skill.Skill{}, false, err
	}

	return s, false, nil
}

// resolveSkillRefs returns the ids a job should carry. Every id is checked
// before any name is upserted, so an unknown id writes nothing.
func resolveSkillRefs(ctx context.Context, b base, tx pgx.Tx, refs skill.Refs) ([]string, error) {
	ids := skill.Dedupe(refs.IDs)

	if len(ids) > 0 {
		var found int
		err := b.observe("skills.resolve.check_ids", func() error {
			return tx.QueryRow(ctx, `SELECT COUNT(*) FROM skills WHERE id::text = ANY($1)`, ids).Scan(&found)
		})
		if err != nil {
			return nil, err
		}
		if found != len(ids) {
			return nil, skill.ErrUnknownSkill
		}
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}

	for _, name := range refs.Names {
		if skill.NormalizeName(name) == "" {
			continue
		}
		s, _, err := upsertSkill(ctx, b, tx, name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		ids = append(ids, s.ID)
	}

	return ids, nil
}

func replaceJobSkills(ctx context.Context, b base, tx pgx.Tx, jobID string, ids []string) error {
	return b.observe("job_skills.replace", func() error {
		if _, err := tx.Exec(ctx, `DELETE FROM job_skills WHERE job_id = $1`, jobID); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `
		INSERT INTO job_skills (job_id, skill_id)
		SELECT $1, s::uuid FROM unnest($2::text[]) AS s
		ON CONFLICT DO NOTHING
	`, jobID, ids)
		return err
	})
}
