package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crumbs",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crumbs",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	framesDecoded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crumbs",
			Subsystem: "protocol",
			Name:      "frames_decoded_total",
			Help:      "Frames successfully decoded.",
		},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crumbs",
			Subsystem: "protocol",
			Name:      "decode_errors_total",
			Help:      "Frame decode failures by reason.",
		},
		[]string{"reason"},
	)
	scanProbes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crumbs",
			Subsystem: "scan",
			Name:      "probes_total",
			Help:      "Addresses probed during discovery scans.",
		},
	)
	scanHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crumbs",
			Subsystem: "scan",
			Name:      "devices_found_total",
			Help:      "Devices discovered by scans.",
		},
	)
	pollCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crumbs",
			Subsystem: "monitor",
			Name:      "poll_cycles_total",
			Help:      "Peripheral poll attempts by outcome.",
		},
		[]string{"outcome"},
	)
	pollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "crumbs",
			Subsystem: "monitor",
			Name:      "poll_duration_seconds",
			Help:      "Duration of a full poll sweep in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, framesDecoded, decodeErrors,
			scanProbes, scanHits, pollCycles, pollDuration)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrameDecoded() {
	RegisterMetrics()
	framesDecoded.Inc()
}

func RecordDecodeError(reason string) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(reason).Inc()
}

func RecordScanSweep(probed, found int) {
	RegisterMetrics()
	scanProbes.Add(float64(probed))
	scanHits.Add(float64(found))
}

func RecordPollOutcome(outcome string) {
	RegisterMetrics()
	pollCycles.WithLabelValues(outcome).Inc()
}

func RecordPollSweep(duration time.Duration) {
	RegisterMetrics()
	pollDuration.Observe(duration.Seconds())
}
