package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics reúne os contadores Prometheus da aplicação.
type Metrics struct {
	// Registry é o registry dono destas métricas, exposto para o
	// endpoint /metrics.
	Registry *prometheus.Registry

	webhooksReceived *prometheus.CounterVec
	webhooksIgnored  *prometheus.CounterVec
	webhookFailures  *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
}

// NewMetrics cria um registry dedicado e registra as métricas nele.
// Registry privado evita panic de coletor duplicado quando NewMetrics
// roda mais de uma vez (testes).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		webhooksReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_webhooks_received_total",
				Help: "Total de entregas de webhook recebidas.",
			},
			[]string{"platform", "event"},
		),
		webhooksIgnored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_webhooks_ignored_total",
				Help: "Entregas aceitas mas ignoradas (envelope incompleto ou evento desconhecido).",
			},
			[]string{"platform", "reason"},
		),
		webhookFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_webhook_failures_total",
				Help: "Falhas de reconciliação engolidas (resposta ainda é sucesso).",
			},
			[]string{"platform"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_cache_hits_total",
				Help: "Total de hits no cache de métricas.",
			},
			[]string{"endpoint"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funil_cache_misses_total",
				Help: "Total de misses no cache de métricas.",
			},
			[]string{"endpoint"},
		),
	}
}

func (m *Metrics) IncrWebhookReceived(platform, event string) {
	m.webhooksReceived.WithLabelValues(platform, event).Inc()
}

func (m *Metrics) IncrWebhookIgnored(platform, reason string) {
	m.webhooksIgnored.WithLabelValues(platform, reason).Inc()
}

func (m *Metrics) IncrWebhookFailure(platform string) {
	m.webhookFailures.WithLabelValues(platform).Inc()
}

func (m *Metrics) IncrCacheHit(endpoint string) {
	m.cacheHits.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) IncrCacheMiss(endpoint string) {
	m.cacheMisses.WithLabelValues(endpoint).Inc()
}
