package observability

import (
	"sync/atomic"
	"time"
)

// TaskMetrics is the in-process counterpart of the prometheus task series,
// served as JSON on the worker's /debug/tasks endpoint.
type TaskMetrics struct {
	claimed      atomic.Uint64
	done         atomic.Uint64
	failed       atomic.Uint64
	retried      atomic.Uint64
	deadLettered atomic.Uint64

	// duration stats (nanoseconds)
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewTaskMetrics() *TaskMetrics {
	return &TaskMetrics{}
}

func (m *TaskMetrics) IncClaimed() {
	m.claimed.Add(1)
}
func (m *TaskMetrics) IncDone() {
	m.done.Add(1)
}
func (m *TaskMetrics) IncFailed() {
	m.failed.Add(1)
}

func (m *TaskMetrics) IncRetried() {
	m.retried.Add(1)
}

func (m *TaskMetrics) IncDeadLettered() {
	m.deadLettered.Add(1)
}

func (m *TaskMetrics) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	// max update

	for {
		curr := m.durationMax.Load()

		if ns <= curr {
			return
		}

		if m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type TaskMetricsSnapshot struct {
	Claimed         uint64        `json:"claimed"`
	Done            uint64        `json:"done"`
	Failed          uint64        `json:"failed"`
	Retried         uint64        `json:"retried"`
	DeadLettered    uint64        `json:"deadLettered"`
	DurationCount   uint64        `json:"durationCount"`
	AverageDuration time.Duration `json:"averageDurationNs"`
	MaxDuration     time.Duration `json:"maxDurationNs"`
}

func (m *TaskMetrics) Snapshot() TaskMetricsSnapshot {
	count := m.durationCount.Load()
	total := m.durationTotal.Load()
	max := m.durationMax.Load()

	var avg time.Duration

	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return TaskMetricsSnapshot{
		Claimed:         m.claimed.Load(),
		Done:            m.done.Load(),
		Failed:          m.failed.Load(),
		Retried:         m.retried.Load(),
		DeadLettered:    m.deadLettered.Load(),
		DurationCount:   count,
		AverageDuration: avg,
		MaxDuration:     time.Duration(max),
	}
}
