package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests         *prometheus.CounterVec
	CounterImports          *prometheus.CounterVec
	CounterRows             *prometheus.CounterVec
	CounterMalformedTokens  prometheus.Counter
	CounterTemplatesSaved   prometheus.Counter
	CounterSetsCompleted    prometheus.Counter
	CounterSessions         *prometheus.CounterVec
	CounterRecordsDiscarded *prometheus.CounterVec

	// gauges
	GaugeActiveWorkout prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
	HistParseDuration   prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("fittracker", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fittracker", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterImports := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "imports",
		Help:      "The total number of training CSV imports",
	}, []string{"status"})
	counterRows := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "import_rows",
		Help:      "The total number of imported CSV rows",
	}, []string{"result"})
	counterMalformed := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "malformed_tokens",
		Help:      "The total number of reps/time cells that could not be classified",
	})
	counterTemplates := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "templates_saved",
		Help:      "The total number of session templates saved",
	})
	counterSets := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_completed",
		Help:      "The total number of sets marked completed",
	})
	counterSessions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions",
		Help:      "Session instances by terminal status",
	}, []string{"status"})
	counterDiscarded := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_discarded",
		Help:      "Stored records dropped because they failed validation",
	}, []string{"collection"})

	gaugeActive := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_workout",
		Help:      "Shows whether a workout is currently running",
	})

	histReqDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
		},
	)
	histParseDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
			Name:      "csv_parse_duration_seconds",
			Help:      "Duration of a single training CSV parse in seconds",
		},
	)

	return &Manager{
		CounterRequests:         counterRequests,
		CounterImports:          counterImports,
		CounterRows:             counterRows,
		CounterMalformedTokens:  counterMalformed,
		CounterTemplatesSaved:   counterTemplates,
		CounterSetsCompleted:    counterSets,
		CounterSessions:         counterSessions,
		CounterRecordsDiscarded: counterDiscarded,
		GaugeActiveWorkout:      gaugeActive,
		HistRequestDuration:     histReqDuration,
		HistParseDuration:       histParseDuration,
	}
}
