package usecases

import (
	"fmt"
	"time"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/cache"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/observability"
	"github.com/funilmetrics/funilmetrics-api/internal/utils"
)

// HotmartMetrics é o shape fixo da resposta: strings formatadas em
// pt-BR para exibição e os sub-objetos raw/data com números crus.
// Consumidores leem qualquer um dos dois.
type HotmartMetrics struct {
	CheckoutsIniciados     int64  `json:"checkoutsIniciados"`
	CheckoutsNaoTerminados int64  `json:"checkoutsNaoTerminados"`
	PagamentosConfirmados  int    `json:"pagamentosConfirmados"`
	TaxaConversaoCheckout  string `json:"taxaConversaoCheckout"`
	TicketMedio            string `json:"ticketMedio"`
	Faturamento            string `json:"faturamento"`
	Connected              bool   `json:"connected"`

	Raw  HotmartMetricsRaw  `json:"raw"`
	Data HotmartMetricsData `json:"data"`
}

type HotmartMetricsRaw struct {
	TotalSales    int     `json:"totalSales"`
	TotalRevenue  float64 `json:"totalRevenue"`
	AverageTicket float64 `json:"averageTicket"`
}

type HotmartMetricsData struct {
	Sales          int     `json:"sales"`
	Revenue        float64 `json:"revenue"`
	Checkouts      int64   `json:"checkouts"`
	ConversionRate float64 `json:"conversionRate"`
}

type HotmartMetricsUseCase interface {
	GetMetrics(userID string) (*HotmartMetrics, error)
}

type hotmartMetricsUseCase struct {
	integrationRepo repositories.IntegrationRepository
	funnelRepo      repositories.FunnelRepository
	eventRepo       repositories.EventRepository
	cache           *cache.Cache
	metrics         *observability.Metrics
}

func NewHotmartMetricsUseCase(
	integrationRepo repositories.IntegrationRepository,
	funnelRepo repositories.FunnelRepository,
	eventRepo repositories.EventRepository,
	c *cache.Cache,
	metrics *observability.Metrics,
) HotmartMetricsUseCase {
	return &hotmartMetricsUseCase{integrationRepo, funnelRepo, eventRepo, c, metrics}
}

// GetMetrics reduz as vendas dos últimos 30 dias. O status de cada
// compra é lido do metadata ATUAL: um cancelamento posterior exclui a
// venda retroativamente do faturamento do período.
func (uc *hotmartMetricsUseCase) GetMetrics(userID string) (*HotmartMetrics, error) {
	cacheKey := cache.GenerateKey(userID, "hotmart-metrics", nil)
	if cached, ok := uc.cache.Get(cacheKey); ok {
		uc.metrics.IncrCacheHit("hotmart-metrics")
		return cached.(*HotmartMetrics), nil
	}
	uc.metrics.IncrCacheMiss("hotmart-metrics")

	integration, err := uc.integrationRepo.FindActive(userID, entities.PlatformHotmart)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		return emptyHotmartMetrics(false), nil
	}

	funnel, err := uc.funnelRepo.FindFirstByUser(userID)
	if err != nil {
		return nil, err
	}
	if funnel == nil {
		return emptyHotmartMetrics(true), nil
	}

	last30Days := time.Now().Add(-30 * 24 * time.Hour)

	checkouts, err := uc.eventRepo.CountByType(funnel.ID, entities.EventCheckoutStarted, last30Days)
	if err != nil {
		return nil, err
	}

	purchases, err := uc.eventRepo.FindByType(funnel.ID, entities.EventPurchaseComplete, last30Days)
	if err != nil {
		return nil, err
	}

	confirmed, revenue := ReducePurchases(purchases)

	ticket := 0.0
	if confirmed > 0 {
		ticket = revenue / float64(confirmed)
	}

	unfinished := checkouts - int64(confirmed)
	if unfinished < 0 {
		unfinished = 0
	}

	conversion := 0.0
	if checkouts > 0 {
		conversion = float64(confirmed) / float64(checkouts) * 100
	}

	result := &HotmartMetrics{
		CheckoutsIniciados:     checkouts,
		CheckoutsNaoTerminados: unfinished,
		PagamentosConfirmados:  confirmed,
		TaxaConversaoCheckout:  fmt.Sprintf("%.1f%%", conversion),
		TicketMedio:            utils.FormatBRL(ticket),
		Faturamento:            utils.FormatBRL(revenue),
		Connected:              true,
		Raw: HotmartMetricsRaw{
			TotalSales:    confirmed,
			TotalRevenue:  revenue,
			AverageTicket: ticket,
		},
		Data: HotmartMetricsData{
			Sales:          confirmed,
			Revenue:        revenue,
			Checkouts:      checkouts,
			ConversionRate: conversion,
		},
	}

	uc.cache.Set(cacheKey, result, cache.TTLMedium)
	return result, nil
}

// ReducePurchases conta e soma as vendas cujo status atual não é
// canceled. Metadata ilegível é pulado.
func ReducePurchases(purchases []entities.FunnelEvent) (confirmed int, revenue float64) {
	for _, purchase := range purchases {
		metadata, err := entities.DecodePurchase(purchase.Metadata)
		if err != nil {
			continue
		}
		if metadata.Canceled() {
			continue
		}
		confirmed++
		revenue += metadata.Price
	}
	return confirmed, revenue
}

func emptyHotmartMetrics(connected bool) *HotmartMetrics {
	return &HotmartMetrics{
		TaxaConversaoCheckout: "0%",
		TicketMedio:           "R$ 0",
		Faturamento:           "R$ 0",
		Connected:             connected,
	}
}
