package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics colectores Prometheus del servicio. Un *Metrics nil es válido y no registra nada.
type Metrics struct {
	webhookEvents   *prometheus.CounterVec
	externalResults *prometheus.CounterVec
	salesCommitted  *prometheus.CounterVec
}

// New crea los colectores y los registra en reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factu_webhook_events_total",
			Help: "Eventos de webhook recibidos por proveedor y resultado.",
		}, []string{"provider", "outcome"}),
		externalResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factu_external_payment_results_total",
			Help: "Resultados de pagos externos esperados (confirmed, rejected, expired, cancelled).",
		}, []string{"outcome"}),
		salesCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factu_sales_committed_total",
			Help: "Ventas confirmadas por familia de numeración.",
		}, []string{"family"}),
	}
	reg.MustRegister(m.webhookEvents, m.externalResults, m.salesCommitted)
	return m
}

// WebhookEvent cuenta un webhook procesado.
func (m *Metrics) WebhookEvent(provider, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(provider, outcome).Inc()
}

// ExternalPaymentResult cuenta la resolución de un pago externo.
func (m *Metrics) ExternalPaymentResult(outcome string) {
	if m == nil {
		return
	}
	m.externalResults.WithLabelValues(outcome).Inc()
}

// SaleCommitted cuenta una venta confirmada.
func (m *Metrics) SaleCommitted(family string) {
	if m == nil {
		return
	}
	m.salesCommitted.WithLabelValues(family).Inc()
}
