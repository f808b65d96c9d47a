package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeNoData    = "no_data"
	OutcomeField     = "field_missing"
	OutcomeTransport = "transport"
)

// Metrics holds the collectors for one process. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	resolutions    *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
	dollarVolume   *prometheus.GaugeVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adrflow",
			Name:      "resolutions_total",
			Help:      "Symbol resolutions by outcome.",
		}, []string{"outcome"}),
		requestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "adrflow",
			Name:      "provider_request_seconds",
			Help:      "Upstream history request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		dollarVolume: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "adrflow",
			Name:      "basket_dollar_volume",
			Help:      "Normalized dollar volume of the last built report.",
		}, []string{"basket"}),
	}
	m.Registry.MustRegister(m.resolutions, m.requestSeconds, m.dollarVolume)
	return m
}

func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestSeconds.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) SetDollarVolume(basket string, v float64) {
	if m == nil {
		return
	}
	m.dollarVolume.WithLabelValues(basket).Set(v)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
