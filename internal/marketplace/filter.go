package marketplace

import (
	"strconv"
	"strings"

	"github.com/geocoder89/quickhire/internal/domain/job"
	"github.com/geocoder89/quickhire/internal/validation"
)

// ListJobsQuery is the raw listing query as it arrives from a client.
type ListJobsQuery struct {
	Search string
	Skills []string
	Status string
	Page   string
	Limit  string
}

// ParseJobFilter converts q into a job.Filter, reporting every malformed
// field at once. Empty values take the defaults of job.Filter.Normalize.
func ParseJobFilter(q ListJobsQuery) (job.Filter, error) {
	var fields []validation.FieldError

	f := job.Filter{
		Search:   strings.TrimSpace(q.Search),
		SkillIDs: q.Skills,
	}

	if raw := strings.TrimSpace(q.Status); raw != "" {
		st, err := job.ParseStatus(raw)
		if err != nil {
			fields = append(fields, statusFieldError())
		}
		f.Status = st
	}

	if n, fe := parsePositive("page", q.Page, 0); fe != nil {
		fields = append(fields, *fe)
	} else {
		f.Page = n
	}

	if n, fe := parsePositive("limit", q.Limit, job.MaxPageLimit); fe != nil {
		fields = append(fields, *fe)
	} else {
		f.Limit = n
	}

	if len(fields) > 0 {
		return job.Filter{}, validationError(fields)
	}
	return f.Normalize(), nil
}

// parsePositive returns 0 for an empty value. max <= 0 means unbounded.
func parsePositive(field, raw string, max int) (int, *validation.FieldError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &validation.FieldError{Field: field, Rule: "numeric", Message: "must be a whole number"}
	}
	if n < 1 {
		return 0, &validation.FieldError{Field: field, Rule: "min", Param: "1", Message: validation.Message("min", "1")}
	}
	if max > 0 && n > max {
		p := strconv.Itoa(max)
		return 0, &validation.FieldError{Field: field, Rule: "max", Param: p, Message: validation.Message("max", p)}
	}
	return n, nil
}
