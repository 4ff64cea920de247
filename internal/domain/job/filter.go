package job

import "math"

const (
	DefaultPageLimit = 6
	MaxPageLimit     = 100
)

// Filter describes a public listing query. Skill matching is any-of: a job
// qualifies when it carries at least one of SkillIDs.
type Filter struct {
	Search   string
	SkillIDs []string
	Status   Status
	Page     int
	Limit    int
}

// Normalize fills defaults: status open, page 1, limit DefaultPageLimit.
func (f Filter) Normalize() Filter {
	if f.Status == "" {
		f.Status = StatusOpen
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

// Offset saturates at math.MaxInt, so an absurd page lands past the end of
// any result set instead of wrapping negative.
func (f Filter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

func Paginate(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}
}

type Page struct {
	Jobs       []Job      `json:"jobs"`
	Pagination Pagination `json:"pagination"`
}
