package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var errSimulatedOutage = errors.New("provider down (simulated)")

// LogNotifier writes notifications to the structured log instead of a
// provider.
type LogNotifier struct {
	log   *slog.Logger
	delay time.Duration
	fail  bool
}

type LogOption func(*LogNotifier)

// WithDelay simulates a slow provider.
func WithDelay(d time.Duration) LogOption {
	return func(n *LogNotifier) { n.delay = d }
}

// WithFailure simulates a provider outage.
func WithFailure(fail bool) LogOption {
	return func(n *LogNotifier) { n.fail = fail }
}

func NewLogNotifier(log *slog.Logger, opts ...LogOption) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	n := &LogNotifier{log: log}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *LogNotifier) ApplicationSubmitted(ctx context.Context, in ApplicationSubmitted) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.application_submitted",
		"email", in.Employer.Email,
		"employer", in.Employer.Name,
		"job_id", in.JobID,
		"job_title", in.JobTitle,
		"application_id", in.ApplicationID,
		"freelancer", in.FreelancerName,
	)
	return nil
}

func (n *LogNotifier) JobStatusChanged(ctx context.Context, in JobStatusChanged) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.job_status_changed",
		"email", in.Recipient.Email,
		"name", in.Recipient.Name,
		"job_id", in.JobID,
		"job_title", in.JobTitle,
		"from", in.From,
		"to", in.To,
	)
	return nil
}

func (n *LogNotifier) simulate(ctx context.Context) error {
	if n.delay > 0 {
		select {
		case <-time.After(n.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n.fail {
		return errSimulatedOutage
	}
	return nil
}
