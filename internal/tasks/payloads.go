package tasks

// Payloads carry ids only; the worker loads details when it runs.

type ApplicationSubmittedPayload struct {
	ApplicationID string `json:"applicationId"`
	JobID         string `json:"jobId"`
	FreelancerID  string `json:"freelancerId"`
	EmployerID    string `json:"employerId"`
}

type JobStatusChangedPayload struct {
	JobID      string `json:"jobId"`
	EmployerID string `json:"employerId"`
	From       string `json:"from"`
	To         string `json:"to"`
}
