// Package telemetry agrupa métricas Prometheus y trazas OpenTelemetry.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/sales-ledger/internal/application/ports"
)

var _ ports.Metrics = (*Metrics)(nil)

// Metrics implementa ports.Metrics sobre un registro Prometheus propio.
type Metrics struct {
	registry         *prometheus.Registry
	salesPosted      prometheus.Counter
	salesRejected    *prometheus.CounterVec
	saleDuration     prometheus.Histogram
	movementsApplied *prometheus.CounterVec
	lowStockSignals  prometheus.Counter
}

// NewMetrics registra los colectores bajo el namespace dado.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		salesPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_posted_total",
			Help:      "Ventas confirmadas.",
		}),
		salesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_rejected_total",
			Help:      "Ventas rechazadas por motivo.",
		}, []string{"reason"}),
		saleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_post_duration_seconds",
			Help:      "Duración de PostSale para ventas confirmadas.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		movementsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_movements_total",
			Help:      "Movimientos escritos en el ledger por tipo.",
		}, []string{"type"}),
		lowStockSignals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "low_stock_signals_total",
			Help:      "Señales de stock bajo emitidas tras commit.",
		}),
	}
	m.registry.MustRegister(
		m.salesPosted, m.salesRejected, m.saleDuration, m.movementsApplied, m.lowStockSignals,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) SalePosted(d time.Duration) {
	m.salesPosted.Inc()
	m.saleDuration.Observe(d.Seconds())
}

func (m *Metrics) SaleRejected(reason string) { m.salesRejected.WithLabelValues(reason).Inc() }

func (m *Metrics) MovementApplied(movementType string) {
	m.movementsApplied.WithLabelValues(movementType).Inc()
}

func (m *Metrics) LowStockSignaled() { m.lowStockSignals.Inc() }

// Registry expone el registro (tests).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler sirve /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
