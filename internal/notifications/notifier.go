package notifications

import (
	"context"
	"errors"
)

var (
	// ErrAlreadySent means this recipient was already notified for the task.
	ErrAlreadySent = errors.New("notification already sent")
	// ErrInProgress means another worker is sending it right now.
	ErrInProgress = errors.New("notification send in progress")
)

type Recipient struct {
	ID    string
	Name  string
	Email string
}

type ApplicationSubmitted struct {
	Employer       Recipient
	ApplicationID  string
	JobID          string
	JobTitle       string
	FreelancerName string
}

type JobStatusChanged struct {
	Recipient Recipient
	JobID     string
	JobTitle  string
	From      string
	To        string
}

type Notifier interface {
	ApplicationSubmitted(ctx context.Context, n ApplicationSubmitted) error
	JobStatusChanged(ctx context.Context, n JobStatusChanged) error
}
