// Package memory is a process-local implementation of every marketplace
// store. One mutex serializes all access, which gives each multi-step
// operation the same all-or-nothing behaviour a database transaction has.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/application"
	"github.com/geocoder89/quickhire/internal/domain/job"
	"github.com/geocoder89/quickhire/internal/domain/skill"
	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/geocoder89/quickhire/internal/marketplace"
	"github.com/google/uuid"
)

var _ marketplace.Store = (*Store)(nil)

type pair struct {
	jobID        string
	freelancerID string
}

type jobRow struct {
	job      job.Job // Skills, EmployerName and ApplicationCount are derived on read
	skillIDs []string
}

type Store struct {
	mu sync.Mutex

	users   map[string]user.User
	byEmail map[string]string

	jobs map[string]*jobRow

	skills    map[string]skill.Skill
	skillKeys map[string]string

	apps  []application.Application
	pairs map[pair]struct{}
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]user.User),
		byEmail:   make(map[string]string),
		jobs:      make(map[string]*jobRow),
		skills:    make(map[string]skill.Skill),
		skillKeys: make(map[string]string),
		pairs:     make(map[pair]struct{}),
	}
}

// Users

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := user.NormalizeEmail(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return user.User{}, user.ErrEmailTaken
	}

	u.Email = email
	s.users[u.ID] = u
	s.byEmail[email] = u.ID

	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	at = at.UTC()
	u.LastLoginAt = &at
	u.UpdatedAt = at
	s.users[id] = u
	return nil
}

// Skills

func (s *Store) ListSkills(ctx context.Context, ids []string) ([]skill.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]skill.Skill, 0)
	if len(ids) == 0 {
		for _, sk := range s.skills {
			out = append(out, sk)
		}
	} else {
		for _, id := range ids {
			if sk, ok := s.skills[id]; ok {
				out = append(out, sk)
			}
		}
	}

	sortSkills(out)
	return out, nil
}

func (s *Store) UpsertSkill(ctx context.Context, name string) (skill.Skill, bool, error) {
	if err := ctx.Err(); err != nil {
		return skill.Skill{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sk, created := s.upsertSkillLocked(name)
	return sk, created, nil
}

func (s *Store) upsertSkillLocked(name string) (skill.Skill, bool) {
	name = skill.NormalizeName(name)
	key := skill.Key(name)

	if id, ok := s.skillKeys[key]; ok {
		return s.skills[id], false
	}

	sk := skill.Skill{ID: uuid.NewString(), Name: name}
	s.skills[sk.ID] = sk
	s.skillKeys[key] = sk.ID
	return sk, true
}

// resolveRefsLocked checks every id before upserting any name, so an
// unknown id writes nothing.
func (s *Store) resolveRefsLocked(refs skill.Refs) ([]string, error) {
	for _, id := range refs.IDs {
		if _, ok := s.skills[id]; !ok {
			return nil, skill.ErrUnknownSkill
		}
	}

	ids := append([]string(nil), refs.IDs...)
	for _, name := range refs.Names {
		sk, _ := s.upsertSkillLocked(name)
		ids = append(ids, sk.ID)
	}
	return skill.Dedupe(ids), nil
}

// Jobs

func (s *Store) CreateJob(ctx context.Context, j job.Job, refs skill.Refs) (job.Job, error) {
	if err := ctx.Err(); err != nil {
		return job.Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.resolveRefsLocked(refs)
	if err != nil {
		return job.Job{}, err
	}

	row := &jobRow{job: j, skillIDs: ids}
	s.jobs[j.ID] = row

	return s.readJobLocked(row), nil
}

func (s *Store) MutateJob(ctx context.Context, id, employerID string, refs *skill.Refs, mutate func(*job.Job) error) (job.Job, error) {
	if err := ctx.Err(); err != nil {
		return job.Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.jobs[id]
	if !ok || row.job.EmployerID != employerID {
		return job.Job{}, job.ErrNotFound
	}

	// work on a copy; nothing is stored unless every step succeeds
	draft := row.job
	if err := mutate(&draft); err != nil {
		return job.Job{}, err
	}

	skillIDs := row.skillIDs
	if refs != nil {
		resolved, err := s.resolveRefsLocked(*refs)
		if err != nil {
			return job.Job{}, err
		}
		skillIDs = resolved
	}

	row.job = draft
	row.skillIDs = skillIDs

	return s.readJobLocked(row), nil
}

func (s *Store) GetJob(ctx context.Context, id string) (job.Job, error) {
	if err := ctx.Err(); err != nil {
		return job.Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.jobs[id]
	if !ok || !row.job.Visible() {
		return job.Job{}, job.ErrNotFound
	}
	return s.readJobLocked(row), nil
}

func (s *Store) ListJobs(ctx context.Context, f job.Filter) ([]job.Job, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(f.Search)
	wanted := make(map[string]struct{}, len(f.SkillIDs))
	for _, id := range f.SkillIDs {
		wanted[id] = struct{}{}
	}

	matched := make([]*jobRow, 0)
	for _, row := range s.jobs {
		j := row.job
		if !j.Visible() || j.Status != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(j.Title), search) &&
			!strings.Contains(strings.ToLower(j.Description), search) {
			continue
		}
		if len(wanted) > 0 && !hasAny(row.skillIDs, wanted) {
			continue
		}
		matched = append(matched, row)
	}

	sortRowsNewestFirst(matched)

	total := len(matched)
	start := min(max(f.Offset(), 0), total)
	end := start + min(max(f.Limit, 0), total-start)

	out := make([]job.Job, 0, end-start)
	for _, row := range matched[start:end] {
		out = append(out, s.readJobLocked(row))
	}
	return out, total, nil
}

func (s *Store) ListJobsByEmployer(ctx context.Context, employerID string) ([]job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]*jobRow, 0)
	for _, row := range s.jobs {
		if row.job.EmployerID == employerID && row.job.Visible() {
			rows = append(rows, row)
		}
	}
	sortRowsNewestFirst(rows)

	out := make([]job.Job, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.readJobLocked(row))
	}
	return out, nil
}

// Applications

func (s *Store) CreateApplication(ctx context.Context, app application.Application, admit func(context.Context) error) (application.Application, error) {
	if err := ctx.Err(); err != nil {
		return application.Application{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.jobs[app.JobID]
	if !ok || !row.job.AcceptsApplications() {
		return application.Application{}, application.ErrJobNotOpen
	}

	key := pair{jobID: app.JobID, freelancerID: app.FreelancerID}
	if _, dup := s.pairs[key]; dup {
		return application.Application{}, application.ErrDuplicate
	}

	if admit != nil {
		if err := admit(ctx); err != nil {
			return application.Application{}, err
		}
	}

	s.pairs[key] = struct{}{}
	s.apps = append(s.apps, app)

	return s.readApplicationLocked(app, true), nil
}

func (s *Store) ListApplicationsForJob(ctx context.Context, jobID, employerID string) ([]application.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.jobs[jobID]
	if !ok || !row.job.Visible() || row.job.EmployerID != employerID {
		return nil, job.ErrNotFound
	}

	out := make([]application.Application, 0)
	for _, a := range s.apps {
		if a.JobID == jobID {
			out = append(out, s.readApplicationLocked(a, false))
		}
	}
	sortAppsNewestFirst(out)
	return out, nil
}

func (s *Store) ListApplicationsByFreelancer(ctx context.Context, freelancerID string) ([]application.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]application.Application, 0)
	for _, a := range s.apps {
		if a.FreelancerID == freelancerID {
			out = append(out, s.readApplicationLocked(a, true))
		}
	}
	sortAppsNewestFirst(out)
	return out, nil
}

// read models

func (s *Store) readJobLocked(row *jobRow) job.Job {
	j := row.job

	j.Skills = make([]skill.Skill, 0, len(row.skillIDs))
	for _, id := range row.skillIDs {
		if sk, ok := s.skills[id]; ok {
			j.Skills = append(j.Skills, sk)
		}
	}
	sortSkills(j.Skills)

	if u, ok := s.users[j.EmployerID]; ok {
		j.EmployerName = u.Name
	}

	j.ApplicationCount = 0
	for _, a := range s.apps {
		if a.JobID == j.ID {
			j.ApplicationCount++
		}
	}
	return j
}

func (s *Store) readApplicationLocked(a application.Application, withJob bool) application.Application {
	if u, ok := s.users[a.FreelancerID]; ok {
		a.FreelancerName = u.Name
		a.FreelancerEmail = u.Email
	}

	if withJob {
		if row, ok := s.jobs[a.JobID]; ok {
			sum := &application.JobSummary{
				ID:         row.job.ID,
				Title:      row.job.Title,
				Status:     string(row.job.Status),
				CreatedAt:  row.job.CreatedAt,
				EmployerID: row.job.EmployerID,
			}
			if u, ok := s.users[row.job.EmployerID]; ok {
				sum.EmployerName = u.Name
			}
			a.Job = sum
		}
	}
	return a
}

func hasAny(ids []string, wanted map[string]struct{}) bool {
	for _, id := range ids {
		if _, ok := wanted[id]; ok {
			return true
		}
	}
	return false
}

func sortSkills(skills []skill.Skill) {
	sort.Slice(skills, func(i, k int) bool {
		return skill.Key(skills[i].Name) < skill.Key(skills[k].Name)
	})
}

func sortRowsNewestFirst(rows []*jobRow) {
	sort.Slice(rows, func(i, k int) bool {
		a, b := rows[i].job, rows[k].job
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func sortAppsNewestFirst(apps []application.Application) {
	sort.Slice(apps, func(i, k int) bool {
		if !apps[i].CreatedAt.Equal(apps[k].CreatedAt) {
			return apps[i].CreatedAt.After(apps[k].CreatedAt)
		}
		return apps[i].ID > apps[k].ID
	})
}
