package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/job"
	"github.com/geocoder89/quickhire/internal/domain/task"
	"github.com/geocoder89/quickhire/internal/notifications"
	"github.com/geocoder89/quickhire/internal/tasks"
)

// errPermanent marks failures a retry cannot fix.
var errPermanent = errors.New("permanent task failure")

// ProcessOne claims and runs at most one task. processed is false when the
// queue had nothing ready.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	t, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, task.ErrNoneAvailable) || errors.Is(err, context.Canceled) {
			return false, nil
		}
		return false, err
	}

	w.metrics.IncClaimed()
	if w.prom != nil {
		w.prom.TasksInFlight.Inc()
		defer w.prom.TasksInFlight.Dec()
	}

	// detached so shutdown does not abort a task halfway
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.TaskTimeout)
	defer cancel()

	start := w.now()
	err = w.execute(runCtx, t)
	elapsed := w.now().Sub(start)
	w.metrics.ObserveDuration(elapsed)

	if err != nil {
		result := w.handleFailure(runCtx, t, err)
		w.prom.ObserveTask(t.Type, result, elapsed)
		return true, nil
	}

	if err := w.repo.MarkDone(runCtx, t.ID); err != nil {
		_ = w.repo.MarkFailed(runCtx, t.ID, "mark_done_failed: "+err.Error())
		w.metrics.IncFailed()
		w.prom.ObserveTask(t.Type, "failed", elapsed)
		return true, err
	}

	w.metrics.IncDone()
	w.prom.ObserveTask(t.Type, "done", elapsed)
	w.log.InfoContext(runCtx, "task_done", "task_id", t.ID, "task_type", t.Type, "attempt", t.Attempts+1)

	return true, nil
}

// handleFailure reschedules with backoff, or fails the task for good when it
// is exhausted or cannot succeed.
func (w *Worker) handleFailure(ctx context.Context, t task.Task, cause error) string {
	msg := cause.Error()

	if errors.Is(cause, errPermanent) || t.Exhausted() {
		if err := w.repo.MarkFailed(ctx, t.ID, msg); err != nil {
			w.log.ErrorContext(ctx, "task_mark_failed_error", "task_id", t.ID, "err", err)
		}
		w.metrics.IncFailed()
		w.metrics.IncDeadLettered()
		w.log.ErrorContext(ctx, "task_failed", "task_id", t.ID, "task_type", t.Type, "attempts", t.Attempts+1, "err", cause)
		return "failed"
	}

	runAt := w.now().Add(w.backoff(t.Attempts))
	if err := w.repo.Reschedule(ctx, t.ID, runAt, msg); err != nil {
		w.log.ErrorContext(ctx, "task_reschedule_error", "task_id", t.ID, "err", err)
	}
	w.metrics.IncRetried()
	w.log.WarnContext(ctx, "task_retry_scheduled", "task_id", t.ID, "task_type", t.Type, "run_at", runAt, "err", cause)
	return "retry"
}

func (w *Worker) execute(ctx context.Context, t task.Task) error {
	payload, err := tasks.Decode(t)
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}

	switch p := payload.(type) {
	case tasks.ApplicationSubmittedPayload:
		n, err := w.notes.ApplicationSubmitted(ctx, p.ApplicationID)
		if err != nil {
			return err
		}
		return w.deliver(ctx, t, n.Employer.ID, func(ctx context.Context) error {
			return w.notifier.ApplicationSubmitted(ctx, n)
		})

	case tasks.JobStatusChangedPayload:
		// applicants only hear about a job going away
		if job.Status(p.To) == job.StatusOpen {
			return nil
		}

		title, recipients, err := w.notes.JobApplicants(ctx, p.JobID)
		if err != nil {
			if errors.Is(err, job.ErrNotFound) {
				return fmt.Errorf("%w: %v", errPermanent, err)
			}
			return err
		}

		var firstErr error
		for _, rc := range recipients {
			n := notifications.JobStatusChanged{
				Recipient: rc,
				JobID:     p.JobID,
				JobTitle:  title,
				From:      p.From,
				To:        p.To,
			}
			err := w.deliver(ctx, t, rc.ID, func(ctx context.Context) error {
				return w.notifier.JobStatusChanged(ctx, n)
			})
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr

	default:
		return fmt.Errorf("%w: unhandled payload %T", errPermanent, payload)
	}
}

// deliver sends once per (task, recipient). Already-sent deliveries are
// skipped, so a retried task only resends to the recipients that failed.
func (w *Worker) deliver(ctx context.Context, t task.Task, recipientID string, send func(ctx context.Context) error) error {
	err := w.notes.TryStart(ctx, t.ID, recipientID, t.Type)
	if errors.Is(err, notifications.ErrAlreadySent) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := send(ctx); err != nil {
		if markErr := w.notes.MarkFailed(ctx, t.ID, recipientID, err.Error()); markErr != nil {
			w.log.ErrorContext(ctx, "delivery_mark_failed_error", "task_id", t.ID, "err", markErr)
		}
		return err
	}

	return w.notes.MarkSent(ctx, t.ID, recipientID)
}
