package metrics

import "github.com/prometheus/client_golang/prometheus"

// AnalysisMetrics holds Prometheus metrics for event processing and scoring.
type AnalysisMetrics struct {
	EventsProcessed  prometheus.Counter
	EventsSkipped    *prometheus.CounterVec
	EventsFailed     prometheus.Counter
	AnalysesTotal    prometheus.Counter
	RepliesPublished *prometheus.CounterVec
	TrustScores      prometheus.Histogram
	TrustedRefreshes *prometheus.CounterVec
}

// NewAnalysisMetrics creates and registers analysis metrics on the given registry.
func NewAnalysisMetrics(reg prometheus.Registerer) *AnalysisMetrics {
	m := &AnalysisMetrics{
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "processed_total",
			Help:      "Total number of trigger events fully processed.",
		}),
		EventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "skipped_total",
			Help:      "Total number of trigger events skipped, by reason.",
		}, []string{"reason"}),
		EventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "failed_total",
			Help:      "Total number of trigger events that failed processing.",
		}),
		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "completed_total",
			Help:      "Total number of account analyses completed.",
		}),
		RepliesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replies",
			Name:      "published_total",
			Help:      "Total number of reply attempts, by status.",
		}, []string{"status"}),
		TrustScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "trust_score",
			Help:      "Distribution of computed trust scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		TrustedRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trustlist",
			Name:      "refreshes_total",
			Help:      "Total number of trusted-list refresh attempts, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.EventsProcessed, m.EventsSkipped, m.EventsFailed,
		m.AnalysesTotal, m.RepliesPublished, m.TrustScores, m.TrustedRefreshes,
	)
	return m
}
