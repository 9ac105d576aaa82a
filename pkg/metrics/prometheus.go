package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FinCast/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts       *prometheus.CounterVec
	forecastSteps   *prometheus.HistogramVec
	forecastLatency *prometheus.HistogramVec
	signals         *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New registers the collectors on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_forecasts_total",
				Help: "Forecast runs by asset and outcome",
			},
			[]string{"asset", "outcome"},
		),
		forecastSteps: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fincast_forecast_steps",
				Help:    "Requested horizon of forecast runs",
				Buckets: []float64{1, 5, 10, 21, 63, 126, 252, 365},
			},
			[]string{"asset"},
		),
		forecastLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fincast_forecast_duration_seconds",
				Help:    "Wall time of a single-asset forecast",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"asset"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_signals_total",
				Help: "Generated trading signals by direction",
			},
			[]string{"asset", "direction"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fincast_last_price",
				Help: "Last observed price per asset",
			},
			[]string{"asset"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fincast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordForecast(asset string, steps int, degraded bool, d time.Duration) {
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	r.forecasts.WithLabelValues(asset, outcome).Inc()
	r.forecastSteps.WithLabelValues(asset).Observe(float64(steps))
	r.forecastLatency.WithLabelValues(asset).Observe(d.Seconds())
}

func (r *Recorder) RecordSignal(asset string, direction models.Direction) {
	r.signals.WithLabelValues(asset, string(direction)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastPrice(asset string, price float64) {
	r.lastPrice.WithLabelValues(asset).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
