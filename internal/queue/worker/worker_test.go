package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/task"
	"github.com/geocoder89/quickhire/internal/notifications"
	"github.com/geocoder89/quickhire/internal/tasks"
	"github.com/gin-gonic/gin"
)

type fakeTaskRepo struct {
	mu          sync.Mutex
	queue       []task.Task
	done        []string
	failed      map[string]string
	rescheduled map[string]time.Time
}

func newFakeTaskRepo(ts ...task.Task) *fakeTaskRepo {
	return &fakeTaskRepo{
		queue:       ts,
		failed:      map[string]string{},
		rescheduled: map[string]time.Time{},
	}
}

func (f *fakeTaskRepo) ClaimNext(ctx context.Context, workerID string) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return task.Task{}, task.ErrNoneAvailable
	}
	t := f.queue[0]
	f.queue = f.queue[1:]
	return t, nil
}

func (f *fakeTaskRepo) MarkDone(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = append(f.done, id)
	return nil
}

func (f *fakeTaskRepo) MarkFailed(ctx context.Context, id, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[id] = msg
	return nil
}

func (f *fakeTaskRepo) Reschedule(ctx context.Context, id string, runAt time.Time, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rescheduled[id] = runAt
	return nil
}

func (f *fakeTaskRepo) RequeueStaleProcessing(ctx context.Context, ttl time.Duration) (int64, error) {
	return 0, nil
}

type fakeNotes struct {
	mu         sync.Mutex
	submitted  notifications.ApplicationSubmitted
	title      string
	applicants []notifications.Recipient
	sent       map[string]bool
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{sent: map[string]bool{}}
}

func (f *fakeNotes) ApplicationSubmitted(ctx context.Context, id string) (notifications.ApplicationSubmitted, error) {
	return f.submitted, nil
}

func (f *fakeNotes) JobApplicants(ctx context.Context, jobID string) (string, []notifications.Recipient, error) {
	return f.title, f.applicants, nil
}

func (f *fakeNotes) TryStart(ctx context.Context, taskID, recipientID, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent[taskID+"/"+recipientID] {
		return notifications.ErrAlreadySent
	}
	return nil
}

func (f *fakeNotes) MarkSent(ctx context.Context, taskID, recipientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[taskID+"/"+recipientID] = true
	return nil
}

func (f *fakeNotes) MarkFailed(ctx context.Context, taskID, recipientID, msg string) error {
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	failFor   string
	submitted []notifications.ApplicationSubmitted
	changed   []notifications.JobStatusChanged
}

func (n *recordingNotifier) ApplicationSubmitted(ctx context.Context, in notifications.ApplicationSubmitted) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitted = append(n.submitted, in)
	return nil
}

func (n *recordingNotifier) JobStatusChanged(ctx context.Context, in notifications.JobStatusChanged) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if in.Recipient.ID == n.failFor {
		return errors.New("provider down")
	}
	n.changed = append(n.changed, in)
	return nil
}

func mustTask(t *testing.T, typ tasks.Type, key string, payload any) task.Task {
	t.Helper()
	req, err := tasks.NewRequest(typ, key, payload)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.MaxAttempts = 3
	return task.New(req)
}

func newTestWorker(repo *fakeTaskRepo, notes *fakeNotes, n notifications.Notifier) *Worker {
	return New(Config{WorkerID: "test"}, repo, notes, n,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBackoff(func(int) time.Duration { return time.Minute }),
	)
}

func TestProcessOne_ApplicationSubmitted(t *testing.T) {
	tk := mustTask(t, tasks.TypeApplicationSubmitted, "a1", tasks.ApplicationSubmittedPayload{
		ApplicationID: "a1", JobID: "j1", FreelancerID: "f1", EmployerID: "e1",
	})
	repo := newFakeTaskRepo(tk)
	notes := newFakeNotes()
	notes.submitted = notifications.ApplicationSubmitted{
		Employer:      notifications.Recipient{ID: "e1", Email: "e1@example.com"},
		ApplicationID: "a1",
	}
	n := &recordingNotifier{}

	w := newTestWorker(repo, notes, n)

	processed, err := w.ProcessOne(context.Background())
	if err != nil || !processed {
		t.Fatalf("processed=%v err=%v", processed, err)
	}
	if len(repo.done) != 1 || repo.done[0] != tk.ID {
		t.Fatalf("expected task marked done, got %v", repo.done)
	}
	if len(n.submitted) != 1 || n.submitted[0].Employer.Email != "e1@example.com" {
		t.Fatalf("unexpected notifications: %+v", n.submitted)
	}

	processed, err = w.ProcessOne(context.Background())
	if err != nil || processed {
		t.Fatalf("empty queue: processed=%v err=%v", processed, err)
	}

	if got := w.Metrics().Snapshot(); got.Claimed != 1 || got.Done != 1 {
		t.Fatalf("unexpected metrics: %+v", got)
	}
}

func TestProcessOne_RetryOnlyResendsFailedRecipients(t *testing.T) {
	tk := mustTask(t, tasks.TypeJobStatusChanged, "j1", tasks.JobStatusChangedPayload{
		JobID: "j1", EmployerID: "e1", From: "open", To: "closed",
	})
	repo := newFakeTaskRepo(tk)
	notes := newFakeNotes()
	notes.title = "Backend Engineer"
	notes.applicants = []notifications.Recipient{{ID: "f1"}, {ID: "f2"}}
	n := &recordingNotifier{failFor: "f2"}

	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	w := newTestWorker(repo, notes, n)
	w.now = func() time.Time { return now }

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	runAt, ok := repo.rescheduled[tk.ID]
	if !ok || !runAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("expected reschedule at %v, got %v (ok=%v)", now.Add(time.Minute), runAt, ok)
	}
	if len(n.changed) != 1 || n.changed[0].Recipient.ID != "f1" {
		t.Fatalf("first attempt should reach f1 only: %+v", n.changed)
	}

	// second attempt: f1 is already sent, f2 recovers
	n.failFor = ""
	tk.Attempts = 1
	repo.queue = append(repo.queue, tk)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process retry: %v", err)
	}
	if len(n.changed) != 2 || n.changed[1].Recipient.ID != "f2" {
		t.Fatalf("retry should reach f2 only: %+v", n.changed)
	}
	if len(repo.done) != 1 {
		t.Fatalf("expected done after retry, got %v", repo.done)
	}
}

func TestProcessOne_ExhaustedAndPermanentFailures(t *testing.T) {
	tk := mustTask(t, tasks.TypeJobStatusChanged, "j1", tasks.JobStatusChangedPayload{JobID: "j1", To: "archived"})
	tk.Attempts = 2 // max is 3

	broken := task.New(task.CreateRequest{Type: "unknown_type", Payload: json.RawMessage(`{}`)})

	repo := newFakeTaskRepo(tk, broken)
	notes := newFakeNotes()
	notes.applicants = []notifications.Recipient{{ID: "f1"}}
	n := &recordingNotifier{failFor: "f1"}

	w := newTestWorker(repo, notes, n)

	for i := 0; i < 2; i++ {
		if _, err := w.ProcessOne(context.Background()); err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}

	if _, ok := repo.failed[tk.ID]; !ok {
		t.Fatalf("exhausted task should be failed")
	}
	if _, ok := repo.failed[broken.ID]; !ok {
		t.Fatalf("undecodable task should fail without retry")
	}
	if len(repo.rescheduled) != 0 {
		t.Fatalf("nothing should be rescheduled: %v", repo.rescheduled)
	}
	if got := w.Metrics().Snapshot(); got.DeadLettered != 2 {
		t.Fatalf("expected 2 dead-lettered, got %+v", got)
	}
}

func TestProcessOne_ReopenIsNotNotified(t *testing.T) {
	tk := mustTask(t, tasks.TypeJobStatusChanged, "j1", tasks.JobStatusChangedPayload{JobID: "j1", From: "closed", To: "open"})
	repo := newFakeTaskRepo(tk)
	notes := newFakeNotes()
	notes.applicants = []notifications.Recipient{{ID: "f1"}}
	n := &recordingNotifier{}

	w := newTestWorker(repo, notes, n)
	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(n.changed) != 0 || len(repo.done) != 1 {
		t.Fatalf("reopen should complete silently: changed=%d done=%v", len(n.changed), repo.done)
	}
}

func TestExponentialBackoff(t *testing.T) {
	if d := ExponentialBackoff(0); d < 2*time.Second || d >= 2*time.Second+250*time.Millisecond {
		t.Fatalf("attempt 0: %v", d)
	}
	if d := ExponentialBackoff(20); d < 5*time.Minute || d >= 5*time.Minute+250*time.Millisecond {
		t.Fatalf("attempt 20 should be capped: %v", d)
	}
}

func TestHealthHandler_ReadyFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := newTestWorker(newFakeTaskRepo(), newFakeNotes(), &recordingNotifier{})
	h := w.HealthHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before Run, got %d", rec.Code)
	}

	w.setReady(true)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 when ready, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}

func TestRun_DrainsAndStops(t *testing.T) {
	tk := mustTask(t, tasks.TypeApplicationSubmitted, "a1", tasks.ApplicationSubmittedPayload{
		ApplicationID: "a1", JobID: "j1", FreelancerID: "f1",
	})
	repo := newFakeTaskRepo(tk)
	notes := newFakeNotes()
	notes.submitted = notifications.ApplicationSubmitted{Employer: notifications.Recipient{ID: "e1"}}

	w := New(Config{WorkerID: "test", PollInterval: 10 * time.Millisecond, Concurrency: 2}, repo, notes, &recordingNotifier{},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		repo.mu.Lock()
		n := len(repo.done)
		repo.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("task was not processed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("run: %v", err)
	}
	if w.isReady() {
		t.Fatalf("worker should not be ready after shutdown")
	}
}
