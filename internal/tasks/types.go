package tasks

type Type string

const (
	// TypeApplicationSubmitted tells an employer about a new application.
	TypeApplicationSubmitted Type = "application_submitted"
	// TypeJobStatusChanged tells applicants their job moved to another status.
	TypeJobStatusChanged Type = "job_status_changed"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeApplicationSubmitted, TypeJobStatusChanged:
		return true
	default:
		return false
	}
}
