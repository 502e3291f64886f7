package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "storage_"

	ResultOK       = "ok"
	ResultConflict = "conflict"
	ResultError    = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	assignments *prometheus.CounterVec

	gapFillHolesReused prometheus.Counter
	gapFillMinted      prometheus.Counter
)

// Init registers the service metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		assignments = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "slot_assignments_total",
				Help: "Slot assignment confirmations by result",
			},
			[]string{"result"},
		)

		gapFillHolesReused = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "gap_fill_holes_reused_total",
			Help: "Slot numbers reused from deletion holes",
		})
		gapFillMinted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "gap_fill_minted_total",
			Help: "Slot numbers newly minted past area capacity",
		})

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			assignments,
			gapFillHolesReused,
			gapFillMinted,
		)
	})
}

// ObserveHTTPRequest records one handled request.
func ObserveHTTPRequest(route, status string, duration time.Duration) {
	if httpRequests == nil {
		return
	}
	httpRequests.WithLabelValues(route, status).Inc()
	httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveAssignment records the outcome of a confirm-assign call.
func ObserveAssignment(result string) {
	if assignments == nil {
		return
	}
	assignments.WithLabelValues(result).Inc()
}

// ObserveGapFill records how a slot-creation request was satisfied.
func ObserveGapFill(holesReused, minted int) {
	if gapFillHolesReused == nil {
		return
	}
	gapFillHolesReused.Add(float64(holesReused))
	gapFillMinted.Add(float64(minted))
}
