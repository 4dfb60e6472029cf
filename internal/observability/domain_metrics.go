package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Question outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeRejected      = "rejected"
	OutcomeNoQuery       = "no_query"
	OutcomeGenerationErr = "generation_error"
	OutcomeSQLErr        = "sql_error"
	OutcomeTransportErr  = "transport_error"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querydesk_questions_total",
			Help: "Total number of natural-language questions by profile and outcome.",
		},
		[]string{"profile", "outcome"},
	)
	generationLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querydesk_generation_latency_seconds",
			Help:    "Remote SQL generation latency by provider.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"provider"},
	)
	queryLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querydesk_query_latency_seconds",
			Help:    "MySQL execution latency of generated queries.",
			Buckets: prometheus.DefBuckets,
		},
	)
	rowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querydesk_rows_returned",
			Help:    "Rows returned by generated queries before shaping.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)
	emailsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querydesk_emails_sent_total",
			Help: "Total number of report emails by result.",
		},
		[]string{"result"},
	)
	scheduledRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querydesk_scheduled_runs_total",
			Help: "Total number of scheduled report runs by job and outcome.",
		},
		[]string{"job", "outcome"},
	)
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "querydesk_llm_breaker_state",
			Help: "Circuit breaker state per provider: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		generationLatencySeconds,
		queryLatencySeconds,
		rowsReturned,
		emailsSentTotal,
		scheduledRunsTotal,
		breakerState,
	)
}

func ObserveQuestion(profile, outcome string) {
	questionsTotal.WithLabelValues(profile, outcome).Inc()
}

func ObserveGeneration(provider string, elapsed time.Duration) {
	generationLatencySeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func ObserveQuery(rows int, elapsed time.Duration) {
	queryLatencySeconds.Observe(elapsed.Seconds())
	if rows < 0 {
		rows = 0
	}
	rowsReturned.Observe(float64(rows))
}

func ObserveEmail(err error) {
	if err != nil {
		emailsSentTotal.WithLabelValues("error").Inc()
		return
	}
	emailsSentTotal.WithLabelValues("sent").Inc()
}

func ObserveScheduledRun(job string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = "error"
	}
	scheduledRunsTotal.WithLabelValues(job, outcome).Inc()
}

// SetBreakerState takes gobreaker's numeric state (closed=0, half-open=1, open=2).
func SetBreakerState(provider string, state int) {
	breakerState.WithLabelValues(provider).Set(float64(state))
}
