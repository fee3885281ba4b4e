package handlers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/funilmetrics/funilmetrics-api/internal/application/usecases"
	"github.com/funilmetrics/funilmetrics-api/internal/config"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/observability"
)

// Envelope da WhatsApp Cloud API: entry[].changes[].value carrega as
// mensagens e os status.
type whatsappEnvelope struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string        `json:"field"`
			Value whatsappValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type whatsappValue struct {
	MessagingProduct string `json:"messaging_product"`
	Metadata         struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		PhoneNumberID      string `json:"phone_number_id"`
	} `json:"metadata"`
	Messages []struct {
		From      string `json:"from"`
		ID        string `json:"id"`
		Timestamp string `json:"timestamp"`
		Type      string `json:"type"`
		Text      struct {
			Body string `json:"body"`
		} `json:"text"`
	} `json:"messages"`
	Statuses []struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		Timestamp   string `json:"timestamp"`
		RecipientID string `json:"recipient_id"`
	} `json:"statuses"`
}

type WhatsAppWebhookHandler struct {
	useCase        usecases.WhatsAppWebhookUseCase
	webhookLogRepo repositories.WebhookLogRepository
	cfg            *config.Config
	metrics        *observability.Metrics
	logger         *zap.Logger
}

func NewWhatsAppWebhookHandler(
	useCase usecases.WhatsAppWebhookUseCase,
	webhookLogRepo repositories.WebhookLogRepository,
	cfg *config.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *WhatsAppWebhookHandler {
	return &WhatsAppWebhookHandler{useCase, webhookLogRepo, cfg, metrics, logger}
}

// Verify responde o handshake de assinatura do webhook: a Meta manda
// hub.mode/hub.verify_token/hub.challenge e espera o challenge de volta
// em texto puro.
func (h *WhatsAppWebhookHandler) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.cfg.WhatsappVerifyToken {
		h.logger.Info("🚀 webhook do whatsapp verificado")
		return c.SendString(challenge)
	}

	h.logger.Warn("⚠️ handshake de webhook com verify_token inválido")
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"error":   "verification failed",
	})
}

// Receive processa entregas POST/PUT da Cloud API. O payload bruto é
// persistido antes de qualquer reconciliação e a resposta é sempre
// sucesso: erro aqui não pode provocar retry da Meta.
func (h *WhatsAppWebhookHandler) Receive(c *fiber.Ctx) error {
	started := time.Now()
	body := c.Body()

	logRow := &entities.WebhookLog{
		ID:        uuid.New().String(),
		Platform:  entities.PlatformWhatsapp,
		Method:    c.Method(),
		Endpoint:  c.Path(),
		Payload:   string(body),
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
	if err := h.webhookLogRepo.Create(logRow); err != nil {
		h.logger.Error("❌ falha ao persistir log de webhook", zap.Error(err))
	}

	var envelope whatsappEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Entry) == 0 {
		h.metrics.IncrWebhookIgnored("whatsapp", "malformed_envelope")
		h.logger.Warn("⚠️ webhook do whatsapp com envelope inesperado",
			zap.String("logId", logRow.ID))
		return c.JSON(fiber.Map{"success": true})
	}

	var resolvedUser string
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			if userID := h.dispatch(logRow.ID, change.Value); userID != "" {
				resolvedUser = userID
			}
		}
	}

	if err := h.webhookLogRepo.Finish(logRow.ID, resolvedUser, "messages", time.Since(started).Milliseconds()); err != nil {
		h.logger.Error("❌ falha ao finalizar log de webhook", zap.Error(err))
	}

	h.logger.Info("📊 webhook do whatsapp processado",
		zap.String("logId", logRow.ID),
		zap.Duration("duration", time.Since(started)))
	return c.JSON(fiber.Map{"success": true})
}

// dispatch retorna o tenant resolvido pela última mensagem processada,
// ou vazio quando nenhuma mensagem encontrou integração.
func (h *WhatsAppWebhookHandler) dispatch(logID string, value whatsappValue) string {
	var resolvedUser string
	for _, msg := range value.Messages {
		h.metrics.IncrWebhookReceived("whatsapp", "message")
		userID, err := h.useCase.ProcessIncomingMessage(usecases.IncomingMessage{
			PhoneNumberID: value.Metadata.PhoneNumberID,
			From:          msg.From,
			MessageID:     msg.ID,
			Type:          msg.Type,
			Body:          msg.Text.Body,
			Timestamp:     parseUnixSeconds(msg.Timestamp),
		})
		if err != nil {
			h.metrics.IncrWebhookFailure("whatsapp")
			h.logger.Error("❌ falha ao reconciliar mensagem do whatsapp",
				zap.String("messageId", msg.ID),
				zap.Error(err))
			if logErr := h.webhookLogRepo.SetError(logID, err.Error()); logErr != nil {
				h.logger.Error("❌ falha ao marcar erro no log de webhook", zap.Error(logErr))
			}
		}
		if userID != "" {
			resolvedUser = userID
		}
	}

	for _, status := range value.Statuses {
		h.metrics.IncrWebhookReceived("whatsapp", "status")
		if err := h.useCase.ProcessMessageStatus(usecases.MessageStatus{
			MessageID:   status.ID,
			Status:      status.Status,
			RecipientID: status.RecipientID,
			Timestamp:   parseUnixSeconds(status.Timestamp),
		}); err != nil {
			h.logger.Warn("⚠️ falha ao processar status de mensagem",
				zap.String("messageId", status.ID),
				zap.Error(err))
		}
	}
	return resolvedUser
}

// parseUnixSeconds converte o timestamp em segundos unix que a Cloud
// API manda como string; vazio ou ilegível vira o relógio local.
func parseUnixSeconds(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Now()
	}
	return time.Unix(secs, 0)
}
