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

// IncomingMessage é a mensagem já normalizada pelo handler do webhook.
type IncomingMessage struct {
	PhoneNumberID string
	From          string
	MessageID     string
	Type          string
	Body          string
	Timestamp     time.Time
}

// MessageStatus é a atualização de status de uma mensagem enviada
// (sent, delivered, read, failed).
type MessageStatus struct {
	MessageID   string
	Status      string
	RecipientID string
	Timestamp   time.Time
}

type WhatsAppWebhookUseCase interface {
	// ProcessIncomingMessage retorna o id do tenant resolvido, ou vazio
	// quando nenhuma integração ativa corresponde ao phone_number_id.
	ProcessIncomingMessage(msg IncomingMessage) (string, error)
	ProcessMessageStatus(status MessageStatus) error
}

type whatsAppWebhookUseCase struct {
	integrationRepo repositories.IntegrationRepository
	funnelRepo      repositories.FunnelRepository
	eventRepo       repositories.EventRepository
	cache           *cache.Cache
	locks           *KeyedMutex
	logger          *zap.Logger
}

func NewWhatsAppWebhookUseCase(
	integrationRepo repositories.IntegrationRepository,
	funnelRepo repositories.FunnelRepository,
	eventRepo repositories.EventRepository,
	c *cache.Cache,
	locks *KeyedMutex,
	logger *zap.Logger,
) WhatsAppWebhookUseCase {
	return &whatsAppWebhookUseCase{integrationRepo, funnelRepo, eventRepo, c, locks, logger}
}

// ProcessIncomingMessage reconcilia uma mensagem recebida: anexa à
// conversa existente do remetente ou cria uma conversa nova no primeiro
// estágio do funil, auto-provisionando o funil padrão se preciso.
func (uc *whatsAppWebhookUseCase) ProcessIncomingMessage(msg IncomingMessage) (string, error) {
	integration, err := uc.resolveIntegration(msg.PhoneNumberID)
	if err != nil {
		return "", err
	}
	if integration == nil {
		// Sem integração ativa para este número: aceita e ignora.
		uc.logger.Warn("nenhuma integração WhatsApp ativa para o phone_number_id",
			zap.String("phone_number_id", msg.PhoneNumberID))
		return "", nil
	}

	funnel, err := uc.funnelRepo.FindOrCreateDefault(integration.UserID, entities.DefaultStageTemplate)
	if err != nil {
		return "", fmt.Errorf("provisionar funil padrão: %w", err)
	}

	// Serializa por (tenant, remetente): o append de interação é
	// read-modify-write do metadata.
	unlock := uc.locks.Lock(integration.UserID + ":" + msg.From)
	defer unlock()

	existing, err := uc.eventRepo.FindLatestConversation(funnel.ID, msg.From)
	if err != nil {
		return "", fmt.Errorf("buscar conversa existente: %w", err)
	}

	interaction := entities.Interaction{
		MessageID: msg.MessageID,
		Type:      msg.Type,
		Body:      msg.Body,
		Timestamp: msg.Timestamp,
		Direction: entities.DirectionInbound,
	}

	if existing != nil {
		metadata, err := entities.DecodeConversation(existing.Metadata)
		if err != nil {
			return "", fmt.Errorf("decodificar metadata da conversa %s: %w", existing.ID, err)
		}
		metadata.AppendInteraction(interaction)

		raw, err := entities.EncodeMetadata(metadata)
		if err != nil {
			return "", err
		}
		existing.Metadata = raw
		if err := uc.eventRepo.UpdateMetadata(existing); err != nil {
			return "", fmt.Errorf("atualizar conversa: %w", err)
		}
		uc.logger.Info("conversa atualizada",
			zap.String("user_id", integration.UserID),
			zap.String("whatsapp_number", msg.From),
			zap.Int("message_count", metadata.MessageCount))
	} else {
		first := entities.FirstStage(funnel.Stages)
		if first == nil {
			return "", fmt.Errorf("funil %s sem estágios", funnel.ID)
		}

		metadata := entities.ConversationMetadata{
			WhatsappNumber:  msg.From,
			PhoneNumberID:   msg.PhoneNumberID,
			Interactions:    []entities.Interaction{interaction},
			FirstContact:    msg.Timestamp,
			LastInteraction: msg.Timestamp,
			MessageCount:    1,
			Source:          "whatsapp",
		}
		raw, err := entities.EncodeMetadata(metadata)
		if err != nil {
			return "", err
		}

		event := &entities.FunnelEvent{
			FunnelID:       funnel.ID,
			StageID:        first.ID,
			Type:           entities.EventConversationStarted,
			WhatsappNumber: msg.From,
			Timestamp:      msg.Timestamp,
			Metadata:       raw,
		}
		if err := uc.eventRepo.Create(event); err != nil {
			return "", fmt.Errorf("criar conversa: %w", err)
		}
		uc.logger.Info("nova conversa criada",
			zap.String("user_id", integration.UserID),
			zap.String("whatsapp_number", msg.From))
	}

	uc.invalidateMetrics(integration.UserID)
	return integration.UserID, nil
}

// ProcessMessageStatus registra o status de entrega. Não há escrita no
// store: o dashboard não exibe status por mensagem.
func (uc *whatsAppWebhookUseCase) ProcessMessageStatus(status MessageStatus) error {
	uc.logger.Debug("status de mensagem",
		zap.String("message_id", status.MessageID),
		zap.String("status", status.Status),
		zap.String("recipient", status.RecipientID))
	return nil
}

// resolveIntegration encontra o tenant dono do phone_number_id. O
// webhook não carrega sessão, então o vínculo vem da configuração.
func (uc *whatsAppWebhookUseCase) resolveIntegration(phoneNumberID string) (*entities.Integration, error) {
	integrations, err := uc.integrationRepo.ListActiveByPlatform(entities.PlatformWhatsapp)
	if err != nil {
		return nil, fmt.Errorf("listar integrações WhatsApp: %w", err)
	}
	for i := range integrations {
		cfg, err := integrations[i].ParseConfig()
		if err != nil {
			uc.logger.Warn("config de integração ilegível",
				zap.String("integration_id", integrations[i].ID), zap.Error(err))
			continue
		}
		if cfg.PhoneNumberID == phoneNumberID {
			return &integrations[i], nil
		}
	}
	return nil, nil
}

func (uc *whatsAppWebhookUseCase) invalidateMetrics(userID string) {
	uc.cache.InvalidatePattern(func(key string) bool {
		return strings.HasPrefix(key, userID+":whatsapp-")
	})
}
