package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/cache"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/meta"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/observability"
	"github.com/funilmetrics/funilmetrics-api/internal/utils"
)

// MetaClient abstrai a Graph API para os usecases.
type MetaClient interface {
	GetAdInsights(ctx context.Context, accessToken, adAccountID, datePreset, campaignID string) (*meta.AdInsights, error)
	GetActiveCampaigns(ctx context.Context, accessToken, adAccountID string) ([]meta.Campaign, error)
}

// MetaMetrics é o shape da resposta de métricas de tráfego pago.
type MetaMetrics struct {
	Impressoes     string `json:"impressoes"`
	Cliques        string `json:"cliques"`
	Investimento   string `json:"investimento"`
	CPC            string `json:"cpc"`
	CTR            string `json:"ctr"`
	ROIEstimado    string `json:"roiEstimado"`
	Connected      bool   `json:"connected"`
	Error          string `json:"error,omitempty"`

	Raw meta.AdInsights `json:"raw"`
}

// MetaCampaigns é a resposta da listagem de campanhas.
type MetaCampaigns struct {
	Campaigns []meta.Campaign `json:"campaigns"`
	Connected bool            `json:"connected"`
	Error     string          `json:"error,omitempty"`
}

type MetaMetricsUseCase interface {
	GetMetrics(ctx context.Context, userID, period, campaignID string) (*MetaMetrics, error)
	GetCampaigns(ctx context.Context, userID string) (*MetaCampaigns, error)
}

type metaMetricsUseCase struct {
	integrationRepo repositories.IntegrationRepository
	client          MetaClient
	cache           *cache.Cache
	metrics         *observability.Metrics
	logger          *zap.Logger
}

func NewMetaMetricsUseCase(
	integrationRepo repositories.IntegrationRepository,
	client MetaClient,
	c *cache.Cache,
	metrics *observability.Metrics,
	logger *zap.Logger,
) MetaMetricsUseCase {
	return &metaMetricsUseCase{integrationRepo, client, c, metrics, logger}
}

// datePreset traduz o período da query para o preset da Graph API.
func datePreset(period string) string {
	switch period {
	case "today":
		return "today"
	case "7d":
		return "last_7d"
	case "90d":
		return "last_90d"
	default:
		return "last_30d"
	}
}

// GetMetrics consulta os insights e deriva o ROI estimado. Falha do
// upstream nunca vira erro para o chamador: a resposta volta zerada
// com o campo error preenchido.
func (uc *metaMetricsUseCase) GetMetrics(ctx context.Context, userID, period, campaignID string) (*MetaMetrics, error) {
	cacheKey := cache.GenerateKey(userID, "meta-metrics", map[string]string{
		"period":     period,
		"campaignId": campaignID,
	})
	if cached, ok := uc.cache.Get(cacheKey); ok {
		uc.metrics.IncrCacheHit("meta-metrics")
		return cached.(*MetaMetrics), nil
	}
	uc.metrics.IncrCacheMiss("meta-metrics")

	integration, err := uc.integrationRepo.FindActive(userID, entities.PlatformMetaAds)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		return emptyMetaMetrics(false, ""), nil
	}

	cfg, err := integration.ParseConfig()
	if err != nil || cfg.AdAccountID == "" {
		uc.logger.Warn("⚠️ integração meta sem conta de anúncios configurada",
			zap.String("userId", userID))
		return emptyMetaMetrics(true, "conta de anúncios não configurada"), nil
	}

	insights, err := uc.client.GetAdInsights(ctx, integration.AccessToken, cfg.AdAccountID, datePreset(period), campaignID)
	if err != nil {
		uc.logger.Warn("⚠️ falha ao consultar insights da meta",
			zap.String("userId", userID),
			zap.Error(err))
		return emptyMetaMetrics(true, "falha ao consultar a Meta Graph API"), nil
	}

	result := &MetaMetrics{
		Impressoes:   utils.FormatCompactNumber(insights.Impressions),
		Cliques:      utils.FormatCompactNumber(insights.Clicks),
		Investimento: utils.FormatBRL(insights.Spend),
		CPC:          utils.FormatBRL(insights.CPC),
		CTR:          formatPercent(insights.CTR),
		ROIEstimado:  formatROI(estimateROI(insights.Clicks, insights.Spend)),
		Connected:    true,
		Raw:          *insights,
	}

	uc.cache.Set(cacheKey, result, cache.TTLLong)
	return result, nil
}

func (uc *metaMetricsUseCase) GetCampaigns(ctx context.Context, userID string) (*MetaCampaigns, error) {
	cacheKey := cache.GenerateKey(userID, "meta-campaigns", nil)
	if cached, ok := uc.cache.Get(cacheKey); ok {
		uc.metrics.IncrCacheHit("meta-campaigns")
		return cached.(*MetaCampaigns), nil
	}
	uc.metrics.IncrCacheMiss("meta-campaigns")

	integration, err := uc.integrationRepo.FindActive(userID, entities.PlatformMetaAds)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		return &MetaCampaigns{Campaigns: []meta.Campaign{}}, nil
	}

	cfg, err := integration.ParseConfig()
	if err != nil || cfg.AdAccountID == "" {
		return &MetaCampaigns{Campaigns: []meta.Campaign{}, Connected: true, Error: "conta de anúncios não configurada"}, nil
	}

	campaigns, err := uc.client.GetActiveCampaigns(ctx, integration.AccessToken, cfg.AdAccountID)
	if err != nil {
		uc.logger.Warn("⚠️ falha ao listar campanhas da meta",
			zap.String("userId", userID),
			zap.Error(err))
		return &MetaCampaigns{Campaigns: []meta.Campaign{}, Connected: true, Error: "falha ao consultar a Meta Graph API"}, nil
	}
	if campaigns == nil {
		campaigns = []meta.Campaign{}
	}

	result := &MetaCampaigns{Campaigns: campaigns, Connected: true}
	uc.cache.Set(cacheKey, result, cache.TTLVeryLong)
	return result, nil
}

// estimateROI assume conversão de 2% dos cliques com ticket de R$ 147.
// É uma aproximação exibida como estimativa, nunca como valor apurado.
func estimateROI(clicks int64, spend float64) float64 {
	if spend <= 0 {
		return 0
	}
	estimatedRevenue := float64(clicks) * 0.02 * 147
	return estimatedRevenue / spend
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func formatROI(v float64) string {
	return fmt.Sprintf("%.1fx", v)
}

func emptyMetaMetrics(connected bool, errMsg string) *MetaMetrics {
	return &MetaMetrics{
		Impressoes:   "0",
		Cliques:      "0",
		Investimento: "R$ 0",
		CPC:          "R$ 0",
		CTR:          "0%",
		ROIEstimado:  "0x",
		Connected:    connected,
		Error:        errMsg,
	}
}
