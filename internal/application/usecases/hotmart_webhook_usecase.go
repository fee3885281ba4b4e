package usecases

import (
	"fmt"
	"strings"
	"time"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// PurchaseData é o payload de compra já normalizado pelo handler.
type PurchaseData struct {
	BuyerEmail    string
	BuyerName     string
	ProductName   string
	ProductID     string
	TransactionID string
	Price         float64
	Status        string
	// ApprovedDate em segundos unix, 0 quando ausente.
	ApprovedDate int64
	// Hottok é a assinatura do header, repassada para resolução de tenant.
	Hottok string
}

type HotmartWebhookUseCase interface {
	// Cada método retorna o id do tenant resolvido, ou vazio quando a
	// entrega não corresponde a nenhuma integração ativa.
	ProcessPurchaseComplete(data PurchaseData) (string, error)
	ProcessPurchaseCanceled(data PurchaseData) (string, error)
	ProcessPurchaseDelayed(data PurchaseData) (string, error)
}

type hotmartWebhookUseCase struct {
	integrationRepo repositories.IntegrationRepository
	funnelRepo      repositories.FunnelRepository
	eventRepo       repositories.EventRepository
	cache           *cache.Cache
	locks           *KeyedMutex
	logger          *zap.Logger
}

func NewHotmartWebhookUseCase(
	integrationRepo repositories.IntegrationRepository,
	funnelRepo repositories.FunnelRepository,
	eventRepo repositories.EventRepository,
	c *cache.Cache,
	locks *KeyedMutex,
	logger *zap.Logger,
) HotmartWebhookUseCase {
	return &hotmartWebhookUseCase{integrationRepo, funnelRepo, eventRepo, c, locks, logger}
}

// ProcessPurchaseComplete registra uma venda aprovada no estágio "Pago".
// Idempotente por transaction_id: a segunda entrega do mesmo evento não
// cria segunda linha.
func (uc *hotmartWebhookUseCase) ProcessPurchaseComplete(data PurchaseData) (string, error) {
	integration, err := uc.resolveIntegration(data.Hottok)
	if err != nil || integration == nil {
		return "", err
	}

	funnel, err := uc.funnelRepo.FindOrCreateDefault(integration.UserID, entities.DefaultStageTemplate)
	if err != nil {
		return "", fmt.Errorf("provisionar funil padrão: %w", err)
	}

	unlock := uc.locks.Lock(integration.UserID + ":" + data.TransactionID)
	defer unlock()

	existing, err := uc.eventRepo.FindByTransaction(funnel.ID, entities.EventPurchaseComplete, data.TransactionID)
	if err != nil {
		return "", fmt.Errorf("buscar transação: %w", err)
	}
	if existing != nil {
		uc.logger.Info("compra já registrada, entrega duplicada ignorada",
			zap.String("user_id", integration.UserID),
			zap.String("transaction_id", data.TransactionID))
		return integration.UserID, nil
	}

	stage := entities.FindStage(funnel.Stages, "Pago", -1)
	if stage == nil {
		return "", fmt.Errorf("funil %s sem estágios", funnel.ID)
	}

	timestamp := time.Now()
	if data.ApprovedDate > 0 {
		timestamp = time.Unix(data.ApprovedDate, 0)
	}

	metadata := entities.PurchaseMetadata{
		BuyerEmail:    data.BuyerEmail,
		BuyerName:     data.BuyerName,
		ProductName:   data.ProductName,
		ProductID:     data.ProductID,
		TransactionID: data.TransactionID,
		Price:         data.Price,
		Status:        data.Status,
		ApprovedDate:  data.ApprovedDate,
		Source:        "hotmart",
	}
	raw, err := entities.EncodeMetadata(metadata)
	if err != nil {
		return "", err
	}

	event := &entities.FunnelEvent{
		FunnelID:      funnel.ID,
		StageID:       stage.ID,
		Type:          entities.EventPurchaseComplete,
		TransactionID: data.TransactionID,
		Timestamp:     timestamp,
		Metadata:      raw,
	}
	if err := uc.eventRepo.Create(event); err != nil {
		return "", fmt.Errorf("registrar venda: %w", err)
	}

	uc.logger.Info("venda registrada no funil",
		zap.String("user_id", integration.UserID),
		zap.String("transaction_id", data.TransactionID),
		zap.Float64("price", data.Price))

	uc.invalidateMetrics(integration.UserID)
	return integration.UserID, nil
}

// ProcessPurchaseCanceled muta a compra original para status canceled.
// Cancelamento chegando antes da compra (ou de compra nunca vista) é
// no-op: não há o que encontrar. Não existe caminho canceled→complete.
func (uc *hotmartWebhookUseCase) ProcessPurchaseCanceled(data PurchaseData) (string, error) {
	integration, err := uc.resolveIntegration(data.Hottok)
	if err != nil || integration == nil {
		return "", err
	}

	funnel, err := uc.funnelRepo.FindFirstByUser(integration.UserID)
	if err != nil {
		return "", fmt.Errorf("buscar funil: %w", err)
	}
	if funnel == nil {
		return integration.UserID, nil
	}

	unlock := uc.locks.Lock(integration.UserID + ":" + data.TransactionID)
	defer unlock()

	existing, err := uc.eventRepo.FindByTransaction(funnel.ID, entities.EventPurchaseComplete, data.TransactionID)
	if err != nil {
		return "", fmt.Errorf("buscar transação: %w", err)
	}
	if existing == nil {
		uc.logger.Info("cancelamento sem compra correspondente, ignorado",
			zap.String("user_id", integration.UserID),
			zap.String("transaction_id", data.TransactionID))
		return integration.UserID, nil
	}

	metadata, err := entities.DecodePurchase(existing.Metadata)
	if err != nil {
		return "", fmt.Errorf("decodificar metadata da compra %s: %w", existing.ID, err)
	}
	now := time.Now()
	metadata.Status = entities.PurchaseStatusCanceled
	metadata.CanceledAt = &now

	raw, err := entities.EncodeMetadata(metadata)
	if err != nil {
		return "", err
	}
	existing.Metadata = raw
	if err := uc.eventRepo.UpdateMetadata(existing); err != nil {
		return "", fmt.Errorf("marcar compra cancelada: %w", err)
	}

	uc.logger.Info("compra cancelada",
		zap.String("user_id", integration.UserID),
		zap.String("transaction_id", data.TransactionID))

	uc.invalidateMetrics(integration.UserID)
	return integration.UserID, nil
}

// ProcessPurchaseDelayed registra um checkout iniciado (pagamento em
// análise) no estágio "Checkout".
func (uc *hotmartWebhookUseCase) ProcessPurchaseDelayed(data PurchaseData) (string, error) {
	integration, err := uc.resolveIntegration(data.Hottok)
	if err != nil || integration == nil {
		return "", err
	}

	funnel, err := uc.funnelRepo.FindOrCreateDefault(integration.UserID, entities.DefaultStageTemplate)
	if err != nil {
		return "", fmt.Errorf("provisionar funil padrão: %w", err)
	}

	unlock := uc.locks.Lock(integration.UserID + ":" + data.TransactionID)
	defer unlock()

	existing, err := uc.eventRepo.FindByTransaction(funnel.ID, entities.EventCheckoutStarted, data.TransactionID)
	if err != nil {
		return "", fmt.Errorf("buscar transação: %w", err)
	}
	if existing != nil {
		return integration.UserID, nil
	}

	stage := entities.FindStage(funnel.Stages, "Checkout", 2)
	if stage == nil {
		return "", fmt.Errorf("funil %s sem estágios", funnel.ID)
	}

	metadata := entities.PurchaseMetadata{
		BuyerEmail:    data.BuyerEmail,
		TransactionID: data.TransactionID,
		Status:        entities.PurchaseStatusDelayed,
		Source:        "hotmart",
	}
	raw, err := entities.EncodeMetadata(metadata)
	if err != nil {
		return "", err
	}

	event := &entities.FunnelEvent{
		FunnelID:      funnel.ID,
		StageID:       stage.ID,
		Type:          entities.EventCheckoutStarted,
		TransactionID: data.TransactionID,
		Timestamp:     time.Now(),
		Metadata:      raw,
	}
	if err := uc.eventRepo.Create(event); err != nil {
		return "", fmt.Errorf("registrar checkout: %w", err)
	}

	uc.logger.Info("checkout iniciado",
		zap.String("user_id", integration.UserID),
		zap.String("transaction_id", data.TransactionID))

	uc.invalidateMetrics(integration.UserID)
	return integration.UserID, nil
}

// resolveIntegration encontra o tenant dono do webhook. Quando o hottok
// bate com o token de alguma integração ativa, usa essa; senão cai na
// primeira ativa (comportamento herdado, assinatura não é obrigatória).
func (uc *hotmartWebhookUseCase) resolveIntegration(hottok string) (*entities.Integration, error) {
	integrations, err := uc.integrationRepo.ListActiveByPlatform(entities.PlatformHotmart)
	if err != nil {
		return nil, fmt.Errorf("listar integrações Hotmart: %w", err)
	}
	if len(integrations) == 0 {
		uc.logger.Warn("nenhuma integração Hotmart ativa encontrada")
		return nil, nil
	}
	if hottok != "" {
		for i := range integrations {
			if integrations[i].AccessToken == hottok {
				return &integrations[i], nil
			}
		}
	}
	return &integrations[0], nil
}

func (uc *hotmartWebhookUseCase) invalidateMetrics(userID string) {
	uc.cache.InvalidatePattern(func(key string) bool {
		return strings.HasPrefix(key, userID+":hotmart-")
	})
}
