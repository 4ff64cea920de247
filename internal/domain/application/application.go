package application

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDuplicate  = errors.New("application already exists")
	ErrJobNotOpen = errors.New("job is not accepting applications")
	ErrNotFound   = errors.New("application not found")
)

// JobSummary is attached to a freelancer's own applications: the apply
// response and the dashboard.
type JobSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	EmployerID   string    `json:"employerId"`
	EmployerName string    `json:"employerName"`
}

type Application struct {
	ID              string      `json:"id"`
	JobID           string      `json:"jobId"`
	FreelancerID    string      `json:"freelancerId"`
	FreelancerName  string      `json:"freelancerName,omitempty"`
	FreelancerEmail string      `json:"freelancerEmail,omitempty"`
	Message         string      `json:"message"`
	CreatedAt       time.Time   `json:"createdAt"`
	Job             *JobSummary `json:"job,omitempty"`
}

type CreateRequest struct {
	JobID        string
	FreelancerID string
	Message      string
}

func NewFromCreateRequest(req CreateRequest, now time.Time) Application {
	return Application{
		ID:           uuid.NewString(),
		JobID:        req.JobID,
		FreelancerID: req.FreelancerID,
		Message:      req.Message,
		CreatedAt:    now.UTC(),
	}
}
