package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quickhire"

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Marketplace
	ApplicationsTotal *prometheus.CounterVec
	JobTransitions    *prometheus.CounterVec

	// Tasks (worker)
	TaskDuration  *prometheus.HistogramVec
	TaskResults   *prometheus.CounterVec
	TasksInFlight prometheus.Gauge
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		ApplicationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "marketplace",
				Name:      "applications_total",
				Help:      "Application attempts by outcome.",
			},
			[]string{"result"}, // created|duplicate|rate_limited|job_not_available|error
		),
		JobTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "marketplace",
				Name:      "job_transitions_total",
				Help:      "Accepted job status transitions.",
			},
			[]string{"from", "to"},
		),
		TaskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "tasks",
				Name:      "duration_seconds",
				Help:      "Task execution duration by type and result",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"task_type", "result"}, // result=done|retry|failed
		),
		TaskResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tasks",
				Name:      "results_total",
				Help:      "Task outcomes by type and result.",
			},
			[]string{"task_type", "result"},
		),
		TasksInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "tasks",
				Name:      "in_flight",
				Help:      "Current number of executing tasks (per process)",
			},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.ApplicationsTotal, p.JobTransitions,
		p.TaskDuration, p.TaskResults, p.TasksInFlight,
	)

	return p
}

// ObserveApplication counts one apply attempt. Safe on a nil *Prom.
func (p *Prom) ObserveApplication(result string) {
	if p == nil {
		return
	}
	p.ApplicationsTotal.WithLabelValues(result).Inc()
}

func (p *Prom) ObserveTransition(from, to string) {
	if p == nil {
		return
	}
	p.JobTransitions.WithLabelValues(from, to).Inc()
}

func (p *Prom) ObserveTask(taskType, result string, d time.Duration) {
	if p == nil {
		return
	}
	p.TaskResults.WithLabelValues(taskType, result).Inc()
	p.TaskDuration.WithLabelValues(taskType, result).Observe(d.Seconds())
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
