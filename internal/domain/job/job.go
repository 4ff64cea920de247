package job

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/skill"
	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
	StatusArchived Status = "archived"
)

var (
	ErrNotFound          = errors.New("job not found")
	ErrInvalidStatus     = errors.New("invalid job status")
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// ParseStatus canonicalizes a status string coming from a client or the store.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusOpen, StatusClosed, StatusArchived:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

type Job struct {
	ID               string        `json:"id"`
	EmployerID       string        `json:"employerId"`
	EmployerName     string        `json:"employerName,omitempty"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Budget           float64       `json:"budget"`
	Status           Status        `json:"status"`
	Skills           []skill.Skill `json:"skills"`
	ApplicationCount int           `json:"applicationCount"`
	DeletedAt        *time.Time    `json:"-"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Visible reports whether the job may be returned by list and detail reads.
func (j Job) Visible() bool {
	return j.DeletedAt == nil
}

// AcceptsApplications is the availability precondition for applying.
func (j Job) AcceptsApplications() bool {
	return j.Visible() && j.Status == StatusOpen
}

type CreateRequest struct {
	EmployerID  string
	Title       string
	Description string
	Budget      float64
}

func NewFromCreateRequest(req CreateRequest, now time.Time) Job {
	now = now.UTC()

	return Job{
		ID:          uuid.NewString(),
		EmployerID:  req.EmployerID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Status:      StatusOpen,
		Skills:      []skill.Skill{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
