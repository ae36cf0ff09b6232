package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	answersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubia_answers_total",
			Help: "Total number of answered questions by outcome.",
		},
		[]string{"outcome"},
	)
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubia_cache_lookups_total",
			Help: "Total number of response cache lookups by result.",
		},
		[]string{"result"},
	)
	blockedStatementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubia_blocked_statements_total",
			Help: "Total number of statements rejected by the safety gate, by rule.",
		},
		[]string{"rule"},
	)
	modelCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hubia_model_call_duration_seconds",
			Help:    "Model service round-trip latency by call kind.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hubia_query_duration_seconds",
			Help:    "Database query execution latency.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

func init() {
	prometheus.MustRegister(
		answersTotal,
		cacheLookupsTotal,
		blockedStatementsTotal,
		modelCallDurationSeconds,
		queryDurationSeconds,
	)
}

func ObserveAnswer(outcome string) {
	answersTotal.WithLabelValues(outcome).Inc()
}

func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

func ObserveBlockedStatement(rule string) {
	blockedStatementsTotal.WithLabelValues(rule).Inc()
}

func ObserveModelCall(kind string, elapsed time.Duration) {
	modelCallDurationSeconds.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func ObserveQueryDuration(elapsed time.Duration) {
	queryDurationSeconds.Observe(elapsed.Seconds())
}
