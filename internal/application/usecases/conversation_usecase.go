package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/cache"
)

// WhatsAppSender abstrai o envio de mensagens pela Cloud API.
type WhatsAppSender interface {
	SendTextMessage(ctx context.Context, accessToken, phoneNumberID, to, body string) (string, error)
}

// ConversationView é um item da listagem de conversas do painel.
type ConversationView struct {
	ID              string    `json:"id"`
	WhatsappNumber  string    `json:"whatsappNumber"`
	StageName       string    `json:"stageName"`
	MessageCount    int       `json:"messageCount"`
	LastInteraction time.Time `json:"lastInteraction"`
	LastMessage     string    `json:"lastMessage"`
	StartedAt       time.Time `json:"startedAt"`
}

// ConversationList é a resposta paginada.
type ConversationList struct {
	Conversations []ConversationView `json:"conversations"`
	Total         int64              `json:"total"`
	Page          int                `json:"page"`
	PerPage       int                `json:"perPage"`
}

// SentMessage é o resultado de um envio outbound.
type SentMessage struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

type ConversationUseCase interface {
	List(userID string, page, perPage int) (*ConversationList, error)
	SendMessage(ctx context.Context, userID, conversationID, body string) (*SentMessage, error)
}

type conversationUseCase struct {
	funnelRepo      repositories.FunnelRepository
	eventRepo       repositories.EventRepository
	integrationRepo repositories.IntegrationRepository
	sender          WhatsAppSender
	locks           *KeyedMutex
	cache           *cache.Cache
	logger          *zap.Logger
}

func NewConversationUseCase(
	funnelRepo repositories.FunnelRepository,
	eventRepo repositories.EventRepository,
	integrationRepo repositories.IntegrationRepository,
	sender WhatsAppSender,
	locks *KeyedMutex,
	c *cache.Cache,
	logger *zap.Logger,
) ConversationUseCase {
	return &conversationUseCase{funnelRepo, eventRepo, integrationRepo, sender, locks, c, logger}
}

// List pagina as conversas do funil do usuário, resolvendo o nome do
// estágio de cada uma. Conversas com metadata ilegível aparecem com os
// campos derivados zerados em vez de derrubar a listagem.
func (uc *conversationUseCase) List(userID string, page, perPage int) (*ConversationList, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	funnel, err := uc.funnelRepo.FindFirstByUser(userID)
	if err != nil {
		return nil, err
	}
	if funnel == nil {
		return &ConversationList{Conversations: []ConversationView{}, Page: page, PerPage: perPage}, nil
	}

	stageNames := make(map[string]string, len(funnel.Stages))
	for _, stage := range funnel.Stages {
		stageNames[stage.ID] = stage.Name
	}

	events, total, err := uc.eventRepo.ListConversations(funnel.ID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}

	views := make([]ConversationView, 0, len(events))
	for _, event := range events {
		view := ConversationView{
			ID:             event.ID,
			WhatsappNumber: event.WhatsappNumber,
			StageName:      stageNames[event.StageID],
			StartedAt:      event.Timestamp,
		}
		if m, err := entities.DecodeConversation(event.Metadata); err == nil {
			view.MessageCount = m.MessageCount
			view.LastInteraction = m.LastInteraction
			if n := len(m.Interactions); n > 0 {
				view.LastMessage = m.Interactions[n-1].Body
			}
		}
		views = append(views, view)
	}

	return &ConversationList{
		Conversations: views,
		Total:         total,
		Page:          page,
		PerPage:       perPage,
	}, nil
}

// SendMessage envia um texto pela Cloud API e registra a interação
// outbound na conversa, sob o mesmo lock por contato que o webhook usa.
func (uc *conversationUseCase) SendMessage(ctx context.Context, userID, conversationID, body string) (*SentMessage, error) {
	if body == "" {
		return nil, fmt.Errorf("mensagem vazia")
	}

	integration, err := uc.integrationRepo.FindActive(userID, entities.PlatformWhatsapp)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		return nil, fmt.Errorf("whatsapp não conectado")
	}
	cfg, err := integration.ParseConfig()
	if err != nil {
		return nil, fmt.Errorf("configuração da integração inválida: %w", err)
	}

	funnel, err := uc.funnelRepo.FindFirstByUser(userID)
	if err != nil {
		return nil, err
	}
	if funnel == nil {
		return nil, fmt.Errorf("funil não encontrado")
	}

	event, err := uc.eventRepo.FindByID(funnel.ID, conversationID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("conversa não encontrada")
	}

	unlock := uc.locks.Lock(userID + ":" + event.WhatsappNumber)
	defer unlock()

	// Relê sob o lock para não sobrescrever uma interação que o webhook
	// acabou de anexar.
	event, err = uc.eventRepo.FindByID(funnel.ID, conversationID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("conversa não encontrada")
	}

	messageID, err := uc.sender.SendTextMessage(ctx, integration.AccessToken, cfg.PhoneNumberID, event.WhatsappNumber, body)
	if err != nil {
		uc.logger.Error("❌ falha ao enviar mensagem pelo whatsapp",
			zap.String("userId", userID),
			zap.String("conversationId", conversationID),
			zap.Error(err))
		return nil, fmt.Errorf("falha ao enviar mensagem: %w", err)
	}
	if messageID == "" {
		messageID = uuid.New().String()
	}

	meta, err := entities.DecodeConversation(event.Metadata)
	if err != nil {
		meta = entities.ConversationMetadata{WhatsappNumber: event.WhatsappNumber}
	}
	meta.AppendInteraction(entities.Interaction{
		MessageID: messageID,
		Type:      "text",
		Body:      body,
		Timestamp: time.Now(),
		Direction: entities.DirectionOutbound,
	})

	encoded, err := entities.EncodeMetadata(meta)
	if err != nil {
		return nil, err
	}
	event.Metadata = encoded
	if err := uc.eventRepo.UpdateMetadata(event); err != nil {
		return nil, err
	}

	uc.cache.InvalidatePattern(func(key string) bool {
		return len(key) > len(userID) && key[:len(userID)] == userID
	})

	return &SentMessage{MessageID: messageID, ConversationID: event.ID}, nil
}
