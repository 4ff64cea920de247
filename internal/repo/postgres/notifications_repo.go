package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/application"
	"github.com/geocoder89/quickhire/internal/domain/job"
	"github.com/geocoder89/quickhire/internal/notifications"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationsRepo loads what the worker needs to notify people and records
// one delivery per (task, recipient) so retries never double-send.
type NotificationsRepo struct {
	base
}

func NewNotificationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotificationsRepo {
	return &NotificationsRepo{base{pool: pool, prom: prom}}
}

func (r *NotificationsRepo) ApplicationSubmitted(ctx context.Context, applicationID string) (notifications.ApplicationSubmitted, error) {
	var n notifications.ApplicationSubmitted

	err := r.observe("notifications.application_submitted.load", func() error {
		return r.pool.QueryRow(ctx, `
		SELECT a.id, j.id, j.title, f.name, e.id, e.name, e.email
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		JOIN users f ON f.id = a.freelancer_id
		JOIN users e ON e.id = j.employer_id
		WHERE a.id = $1
	`, applicationID).Scan(
			&n.ApplicationID, &n.JobID, &n.JobTitle, &n.FreelancerName,
			&n.Employer.ID, &n.Employer.Name, &n.Employer.Email,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notifications.ApplicationSubmitted{}, application.ErrNotFound
		}
		return notifications.ApplicationSubmitted{}, err
	}

	return n, nil
}

// JobApplicants returns the job title and everyone who applied to it,
// soft-deleted jobs included.
func (r *NotificationsRepo) JobApplicants(ctx context.Context, jobID string) (string, []notifications.Recipient, error) {
	var title string

	err := r.observe("notifications.job_applicants.title", func() error {
		return r.pool.QueryRow(ctx, `SELECT title FROM jobs WHERE id = $1`, jobID).Scan(&title)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, job.ErrNotFound
		}
		return "", nil, err
	}

	var rows pgx.Rows

	err = r.observe("notifications.job_applicants.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
		SELECT u.id, u.name, u.email
		FROM applications a
		JOIN users u ON u.id = a.freelancer_id
		WHERE a.job_id = $1
		ORDER BY a.created_at ASC
	`, jobID)
		return e
	})
	if err != nil {
		return "", nil, err
	}
	defer rows.Close()

	out := make([]notifications.Recipient, 0)
	for rows.Next() {
		var rc notifications.Recipient
		if err := rows.Scan(&rc.ID, &rc.Name, &rc.Email); err != nil {
			return "", nil, err
		}
		out = append(out, rc)
	}

	return title, out, rows.Err()
}

// TryStart claims the delivery for (taskID, recipientID). A failed delivery
// can be reclaimed; a sent or in-flight one cannot.
func (r *NotificationsRepo) TryStart(ctx context.Context, taskID, recipientID, kind string) error {
	err := r.observe("notifications.deliveries.insert", func() error {
		_, e := r.pool.Exec(ctx, `
		INSERT INTO notification_deliveries (task_id, recipient_id, kind, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'sending', NOW(), NOW())
	`, taskID, recipientID, kind)
		return e
	})
	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// Row exists. Only one worker can flip failed -> sending.
	var claimed int64
	err = r.observe("notifications.deliveries.reclaim", func() error {
		tag, e := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'sending',
		    last_error = NULL,
		    updated_at = NOW()
		WHERE task_id = $1 AND recipient_id = $2 AND status = 'failed'
	`, taskID, recipientID)
		claimed = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if claimed == 1 {
		return nil
	}

	var (
		status string
		sentAt *time.Time
	)
	err = r.observe("notifications.deliveries.status", func() error {
		return r.pool.QueryRow(ctx, `
		SELECT status, sent_at
		FROM notification_deliveries
		WHERE task_id = $1 AND recipient_id = $2
	`, taskID, recipientID).Scan(&status, &sentAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// row disappeared; let the caller retry
			return nil
		}
		return err
	}

	if sentAt != nil || status == "sent" {
		return notifications.ErrAlreadySent
	}
	return notifications.ErrInProgress
}

func (r *NotificationsRepo) MarkSent(ctx context.Context, taskID, recipientID string) error {
	return r.observe("notifications.deliveries.mark_sent", func() error {
		_, e := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'sent',
		    sent_at = NOW(),
		    last_error = NULL,
		    updated_at = NOW()
		WHERE task_id = $1 AND recipient_id = $2
	`, taskID, recipientID)
		return e
	})
}

func (r *NotificationsRepo) MarkFailed(ctx context.Context, taskID, recipientID, errMsg string) error {
	return r.observe("notifications.deliveries.mark_failed", func() error {
		_, e := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'failed',
		    last_error = $3,
		    updated_at = NOW()
		WHERE task_id = $1 AND recipient_id = $2
	`, taskID, recipientID, errMsg)
		return e
	})
}
