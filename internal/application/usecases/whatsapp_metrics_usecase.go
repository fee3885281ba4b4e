package usecases

import (
	"fmt"
	"math"
	"time"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/cache"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/observability"
	"go.uber.org/zap"
)

// StaleThreshold parametriza a heurística de conversa "não terminada":
// última atividade mais velha que After E menos que MaxInteractions
// interações. Regra de negócio arbitrária, por isso configurável.
type StaleThreshold struct {
	After           time.Duration
	MaxInteractions int
}

// WhatsAppMetrics é o shape fixo retornado ao dashboard: strings
// formatadas para exibição e o sub-objeto raw com os números crus.
type WhatsAppMetrics struct {
	ConversasIniciadas     int64  `json:"conversasIniciadas"`
	ConversasNaoTerminadas int    `json:"conversasNaoTerminadas"`
	LeadsQualificados      int    `json:"leadsQualificados"`
	MediaConversasDia      int    `json:"mediaConversasDia"`
	TaxaResposta           string `json:"taxaResposta"`
	TempoMedioResposta     string `json:"tempoMedioResposta"`

	Raw WhatsAppMetricsRaw `json:"raw"`
}

type WhatsAppMetricsRaw struct {
	Conversations   int64   `json:"conversations"`
	Unfinished      int     `json:"unfinished"`
	QualifiedLeads  int     `json:"qualifiedLeads"`
	ResponseRate    float64 `json:"responseRate"`
	AvgResponseMins float64 `json:"avgResponseMins"`
}

type WhatsAppMetricsUseCase interface {
	GetMetrics(userID string) (*WhatsAppMetrics, error)
}

type whatsAppMetricsUseCase struct {
	funnelRepo repositories.FunnelRepository
	eventRepo  repositories.EventRepository
	cache      *cache.Cache
	metrics    *observability.Metrics
	threshold  StaleThreshold
	logger     *zap.Logger
}

func NewWhatsAppMetricsUseCase(
	funnelRepo repositories.FunnelRepository,
	eventRepo repositories.EventRepository,
	c *cache.Cache,
	metrics *observability.Metrics,
	threshold StaleThreshold,
	logger *zap.Logger,
) WhatsAppMetricsUseCase {
	return &whatsAppMetricsUseCase{funnelRepo, eventRepo, c, metrics, threshold, logger}
}

// GetMetrics recomputa do zero as métricas de conversa dos últimos 30
// dias (7 para a média diária) a cada miss de cache.
func (uc *whatsAppMetricsUseCase) GetMetrics(userID string) (*WhatsAppMetrics, error) {
	cacheKey := cache.GenerateKey(userID, "whatsapp-metrics", nil)
	if cached, ok := uc.cache.Get(cacheKey); ok {
		uc.metrics.IncrCacheHit("whatsapp-metrics")
		return cached.(*WhatsAppMetrics), nil
	}
	uc.metrics.IncrCacheMiss("whatsapp-metrics")

	funnel, err := uc.funnelRepo.FindFirstByUser(userID)
	if err != nil {
		return nil, err
	}
	if funnel == nil {
		return emptyWhatsAppMetrics(), nil
	}

	now := time.Now()
	last30Days := now.Add(-30 * 24 * time.Hour)
	last7Days := now.Add(-7 * 24 * time.Hour)

	started, err := uc.eventRepo.CountByType(funnel.ID, entities.EventConversationStarted, last30Days)
	if err != nil {
		return nil, err
	}

	startedLast7, err := uc.eventRepo.CountByType(funnel.ID, entities.EventConversationStarted, last7Days)
	if err != nil {
		return nil, err
	}

	conversations, err := uc.eventRepo.FindByType(funnel.ID, entities.EventConversationStarted, last30Days)
	if err != nil {
		return nil, err
	}

	summary := AnalyzeConversations(conversations, now, uc.threshold)

	avgResponse := 0.0
	if summary.ResponseCount > 0 {
		avgResponse = summary.TotalResponseMinutes / float64(summary.ResponseCount)
	}
	responseRate := 0.0
	if started > 0 {
		responseRate = float64(summary.ResponseCount) / float64(started) * 100
	}

	result := &WhatsAppMetrics{
		ConversasIniciadas:     started,
		ConversasNaoTerminadas: summary.Unfinished,
		LeadsQualificados:      summary.QualifiedLeads,
		MediaConversasDia:      int(math.Round(float64(startedLast7) / 7)),
		TaxaResposta:           fmt.Sprintf("%d%%", int(math.Round(responseRate))),
		TempoMedioResposta:     fmt.Sprintf("%dmin", int(math.Round(avgResponse))),
		Raw: WhatsAppMetricsRaw{
			Conversations:   started,
			Unfinished:      summary.Unfinished,
			QualifiedLeads:  summary.QualifiedLeads,
			ResponseRate:    responseRate,
			AvgResponseMins: avgResponse,
		},
	}

	uc.cache.Set(cacheKey, result, cache.TTLMedium)
	return result, nil
}

func emptyWhatsAppMetrics() *WhatsAppMetrics {
	return &WhatsAppMetrics{
		TaxaResposta:       "0%",
		TempoMedioResposta: "0min",
	}
}

// ConversationSummary é o resultado da redução sobre as conversas.
type ConversationSummary struct {
	Unfinished           int
	QualifiedLeads       int
	ResponseCount        int
	TotalResponseMinutes float64
}

// AnalyzeConversations reduz a lista de conversas em uma passada:
//   - não terminadas: última interação mais velha que o limiar E menos
//     interações que o máximo configurado;
//   - leads qualificados: 3+ interações;
//   - tempo de resposta: só pares adjacentes inbound→outbound contam,
//     na ordem cronológica da lista de interações.
//
// Metadata ilegível é pulado, nunca derruba a agregação.
func AnalyzeConversations(conversations []entities.FunnelEvent, now time.Time, threshold StaleThreshold) ConversationSummary {
	var summary ConversationSummary

	for _, conversation := range conversations {
		metadata, err := entities.DecodeConversation(conversation.Metadata)
		if err != nil {
			continue
		}

		interactions := metadata.Interactions

		if !metadata.LastInteraction.IsZero() {
			idle := now.Sub(metadata.LastInteraction)
			if idle > threshold.After && len(interactions) < threshold.MaxInteractions {
				summary.Unfinished++
			}
		}

		if len(interactions) >= 3 {
			summary.QualifiedLeads++
		}

		for i := 1; i < len(interactions); i++ {
			prev := interactions[i-1]
			curr := interactions[i]
			if prev.Direction == entities.DirectionInbound && curr.Direction == entities.DirectionOutbound {
				summary.TotalResponseMinutes += curr.Timestamp.Sub(prev.Timestamp).Minutes()
				summary.ResponseCount++
			}
		}
	}

	return summary
}
