// Package metrics exposes kiosk counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Config holds the metrics endpoint settings.
type Config struct {
	Listen string `yaml:"listen"` // e.g. ":9100"; empty disables the endpoint
}

var (
	// Registry holds the kiosk collectors.
	Registry = prometheus.NewRegistry()

	spinsRequested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gowheel",
			Subsystem: "spins",
			Name:      "requested_total",
			Help:      "Spin triggers accepted, by source.",
		},
		[]string{"source"},
	)

	spinsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gowheel",
			Subsystem: "spins",
			Name:      "rejected_total",
			Help:      "Spin triggers dropped before reaching the outcome service.",
		},
		[]string{"reason"},
	)

	spinsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gowheel",
			Subsystem: "spins",
			Name:      "completed_total",
			Help:      "Spins whose animation ran to the end.",
		},
	)

	spinsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gowheel",
			Subsystem: "spins",
			Name:      "cancelled_total",
			Help:      "Spins abandoned mid animation.",
		},
	)

	spinErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gowheel",
			Subsystem: "spins",
			Name:      "errors_total",
			Help:      "Failed spins, by kind.",
		},
		[]string{"kind"},
	)

	outcomeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gowheel",
			Subsystem: "outcome",
			Name:      "request_duration_seconds",
			Help:      "Duration of outcome service requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"success"},
	)

	prizeAmount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gowheel",
			Subsystem: "prizes",
			Name:      "amount",
			Help:      "Amount of awarded prizes.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	campaignReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gowheel",
			Subsystem: "campaign",
			Name:      "reloads_total",
			Help:      "Campaign reload attempts, by trigger and result.",
		},
		[]string{"trigger", "success"},
	)

	campaignSegments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gowheel",
			Subsystem: "campaign",
			Name:      "segments",
			Help:      "Segments on the wheel.",
		},
	)
)

func init() {
	Registry.MustRegister(
		spinsRequested,
		spinsRejected,
		spinsCompleted,
		spinsCancelled,
		spinErrors,
		outcomeDuration,
		prizeAmount,
		campaignReloads,
		campaignSegments,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics endpoint in the background. It returns nil when
// no listen address is configured.
func Serve(cfg Config) *http.Server {
	if cfg.Listen == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: cfg.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("Metrics: listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics: server error: %v", err)
		}
	}()
	return srv
}

// SpinRequested counts an accepted trigger.
func SpinRequested(source string) {
	if source == "" {
		source = "unknown"
	}
	spinsRequested.WithLabelValues(source).Inc()
}

// SpinRejected counts a dropped trigger ("busy", "anonymous", "signature").
func SpinRejected(reason string) {
	spinsRejected.WithLabelValues(reason).Inc()
}

// SpinCompleted counts a finished spin and its prize amount.
func SpinCompleted(amount float64) {
	spinsCompleted.Inc()
	prizeAmount.Observe(amount)
}

// SpinCancelled counts an abandoned spin.
func SpinCancelled() {
	spinsCancelled.Inc()
}

// SpinError counts a failed spin.
func SpinError(kind string) {
	spinErrors.WithLabelValues(kind).Inc()
}

// RecordOutcome records one outcome service call.
func RecordOutcome(duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	result := "false"
	if success {
		result = "true"
	}
	outcomeDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// CampaignReloaded records a reload attempt and the resulting wheel size.
func CampaignReloaded(trigger string, segments int, err error) {
	if err != nil {
		campaignReloads.WithLabelValues(trigger, "false").Inc()
		return
	}
	campaignReloads.WithLabelValues(trigger, "true").Inc()
	campaignSegments.Set(float64(segments))
}
