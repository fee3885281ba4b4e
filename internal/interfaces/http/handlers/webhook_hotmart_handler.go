package handlers

import (
	"encoding/json"
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

// Envelope da Hotmart: {event, data} com a compra dentro de data.
type hotmartEnvelope struct {
	Event string      `json:"event"`
	ID    string      `json:"id"`
	Data  hotmartData `json:"data"`
}

type hotmartData struct {
	Buyer struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"buyer"`
	Product struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	} `json:"product"`
	Purchase struct {
		Transaction  string `json:"transaction"`
		ApprovedDate int64  `json:"approved_date"`
		Status       string `json:"status"`
		Price        struct {
			Value float64 `json:"value"`
		} `json:"price"`
	} `json:"purchase"`
}

type HotmartWebhookHandler struct {
	useCase        usecases.HotmartWebhookUseCase
	webhookLogRepo repositories.WebhookLogRepository
	cfg            *config.Config
	metrics        *observability.Metrics
	logger         *zap.Logger
}

func NewHotmartWebhookHandler(
	useCase usecases.HotmartWebhookUseCase,
	webhookLogRepo repositories.WebhookLogRepository,
	cfg *config.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *HotmartWebhookHandler {
	return &HotmartWebhookHandler{useCase, webhookLogRepo, cfg, metrics, logger}
}

// Receive processa entregas da Hotmart. O hottok do header é logado
// sempre; a rejeição por assinatura inválida fica atrás de flag de
// configuração e, quando desligada, a entrega segue normalmente.
func (h *HotmartWebhookHandler) Receive(c *fiber.Ctx) error {
	started := time.Now()
	body := c.Body()
	hottok := c.Get("X-Hotmart-Hottok")

	logRow := &entities.WebhookLog{
		ID:        uuid.New().String(),
		Platform:  entities.PlatformHotmart,
		Method:    c.Method(),
		Endpoint:  c.Path(),
		Payload:   string(body),
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
	if err := h.webhookLogRepo.Create(logRow); err != nil {
		h.logger.Error("❌ falha ao persistir log de webhook", zap.Error(err))
	}

	h.logger.Info("📊 webhook da hotmart recebido",
		zap.String("logId", logRow.ID),
		zap.Bool("hasHottok", hottok != ""))

	if h.cfg.EnforceSignature && hottok == "" {
		h.metrics.IncrWebhookIgnored("hotmart", "missing_signature")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "missing signature",
		})
	}

	var envelope hotmartEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Event == "" {
		h.metrics.IncrWebhookIgnored("hotmart", "malformed_envelope")
		h.logger.Warn("⚠️ webhook da hotmart com envelope inesperado",
			zap.String("logId", logRow.ID))
		return c.JSON(fiber.Map{"success": true})
	}

	event := entities.ParseHotmartEvent(envelope.Event)
	data := usecases.PurchaseData{
		BuyerEmail:    envelope.Data.Buyer.Email,
		BuyerName:     envelope.Data.Buyer.Name,
		ProductName:   envelope.Data.Product.Name,
		ProductID:     envelope.Data.Product.ID.String(),
		TransactionID: envelope.Data.Purchase.Transaction,
		Price:         envelope.Data.Purchase.Price.Value,
		Status:        envelope.Data.Purchase.Status,
		ApprovedDate:  envelope.Data.Purchase.ApprovedDate / 1000,
		Hottok:        hottok,
	}

	h.metrics.IncrWebhookReceived("hotmart", envelope.Event)

	var userID string
	var err error
	switch {
	case event.IsCompletion():
		userID, err = h.useCase.ProcessPurchaseComplete(data)
	case event.IsCancellation():
		userID, err = h.useCase.ProcessPurchaseCanceled(data)
	case event == entities.HotmartPurchaseDelayed:
		userID, err = h.useCase.ProcessPurchaseDelayed(data)
	default:
		h.metrics.IncrWebhookIgnored("hotmart", "unknown_event")
		h.logger.Info("📊 evento da hotmart ignorado",
			zap.String("event", envelope.Event))
	}

	if err != nil {
		h.metrics.IncrWebhookFailure("hotmart")
		h.logger.Error("❌ falha ao reconciliar compra da hotmart",
			zap.String("transaction", data.TransactionID),
			zap.String("event", envelope.Event),
			zap.Error(err))
		if logErr := h.webhookLogRepo.SetError(logRow.ID, err.Error()); logErr != nil {
			h.logger.Error("❌ falha ao marcar erro no log de webhook", zap.Error(logErr))
		}
	}

	if finErr := h.webhookLogRepo.Finish(logRow.ID, userID, envelope.Event, time.Since(started).Milliseconds()); finErr != nil {
		h.logger.Error("❌ falha ao finalizar log de webhook", zap.Error(finErr))
	}

	h.logger.Info("📊 webhook da hotmart processado",
		zap.String("logId", logRow.ID),
		zap.Duration("duration", time.Since(started)))
	return c.JSON(fiber.Map{"success": true})
}
