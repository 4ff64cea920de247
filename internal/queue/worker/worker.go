package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/task"
	"github.com/geocoder89/quickhire/internal/notifications"
	"github.com/geocoder89/quickhire/internal/observability"
)

type TaskRepository interface {
	ClaimNext(ctx context.Context, workerID string) (task.Task, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

// NotificationRepository loads notification details and records deliveries.
type NotificationRepository interface {
	ApplicationSubmitted(ctx context.Context, applicationID string) (notifications.ApplicationSubmitted, error)
	JobApplicants(ctx context.Context, jobID string) (string, []notifications.Recipient, error)
	TryStart(ctx context.Context, taskID, recipientID, kind string) error
	MarkSent(ctx context.Context, taskID, recipientID string) error
	MarkFailed(ctx context.Context, taskID, recipientID, errMsg string) error
}

type Config struct {
	WorkerID      string
	PollInterval  time.Duration
	Concurrency   int
	StaleLockTTL  time.Duration
	TaskTimeout   time.Duration
	ShutdownGrace time.Duration
}

type Worker struct {
	cfg      Config
	repo     TaskRepository
	notes    NotificationRepository
	notifier notifications.Notifier

	metrics *observability.TaskMetrics
	prom    *observability.Prom
	log     *slog.Logger

	backoff func(attempt int) time.Duration
	now     func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

type Option func(*Worker)

func WithMetrics(m *observability.TaskMetrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithProm(p *observability.Prom) Option {
	return func(w *Worker) { w.prom = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) { w.log = l }
}

func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(w *Worker) { w.backoff = fn }
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

func New(cfg Config, repo TaskRepository, notes NotificationRepository, notifier notifications.Notifier, opts ...Option) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.StaleLockTTL <= 0 {
		cfg.StaleLockTTL = 5 * time.Minute
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 30 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = "worker"
	}

	w := &Worker{
		cfg:      cfg,
		repo:     repo,
		notes:    notes,
		notifier: notifier,
		metrics:  observability.NewTaskMetrics(),
		log:      slog.Default(),
		backoff:  ExponentialBackoff,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the queue with cfg.Concurrency loops until ctx is canceled.
// In-flight tasks finish on a context detached from ctx, bounded by
// ShutdownGrace.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	w.log.InfoContext(ctx, "worker_started", "worker_id", w.cfg.WorkerID, "concurrency", w.cfg.Concurrency)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.requeueLoop(ctx)
	}()

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(w.cfg.ShutdownGrace):
		return errors.New("worker shutdown grace period exceeded")
	}
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// keep claiming while there is work, then wait for the next tick
		for ctx.Err() == nil {
			processed, err := w.ProcessOne(ctx)
			if err != nil {
				w.log.ErrorContext(ctx, "task_process_error", "err", err)
			}
			if !processed {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) requeueLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.StaleLockTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.StaleLockTTL)
			if err != nil {
				w.log.ErrorContext(ctx, "task_requeue_stale_error", "err", err)
				continue
			}
			if n > 0 {
				w.log.WarnContext(ctx, "task_requeued_stale", "count", n)
			}
		}
	}
}

func (w *Worker) Metrics() *observability.TaskMetrics {
	return w.metrics
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) isReady() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}
