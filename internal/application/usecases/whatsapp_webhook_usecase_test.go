package usecases

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/cache"
)

func newWhatsAppIntegration(t *testing.T, userID, phoneNumberID string) entities.Integration {
	t.Helper()
	config, err := entities.EncodeIntegrationConfig(entities.IntegrationConfig{
		PhoneNumberID: phoneNumberID,
		ConnectedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	return entities.Integration{
		ID:          "int-1",
		UserID:      userID,
		Platform:    entities.PlatformWhatsapp,
		AccessToken: "token",
		Config:      config,
		IsActive:    true,
	}
}

func newWhatsAppWebhookFixture(t *testing.T) (WhatsAppWebhookUseCase, *fakeFunnelRepo, *fakeEventRepo) {
	t.Helper()
	funnelRepo := &fakeFunnelRepo{}
	eventRepo := &fakeEventRepo{}
	integrationRepo := &fakeIntegrationRepo{
		integrations: []entities.Integration{newWhatsAppIntegration(t, "user-1", "555000")},
	}
	uc := NewWhatsAppWebhookUseCase(integrationRepo, funnelRepo, eventRepo, cache.New(), NewKeyedMutex(), zap.NewNop())
	return uc, funnelRepo, eventRepo
}

func TestProcessIncomingMessageProvisionsDefaultFunnel(t *testing.T) {
	uc, funnelRepo, eventRepo := newWhatsAppWebhookFixture(t)

	userID, err := uc.ProcessIncomingMessage(IncomingMessage{
		PhoneNumberID: "555000",
		From:          "5511999990000",
		MessageID:     "wamid.1",
		Type:          "text",
		Body:          "oi",
		Timestamp:     time.Now(),
	})
	if err != nil {
		t.Fatalf("ProcessIncomingMessage: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("resolved user = %q, want user-1", userID)
	}

	funnel, _ := funnelRepo.FindFirstByUser("user-1")
	if funnel == nil {
		t.Fatal("expected default funnel to be auto-provisioned")
	}
	if len(funnel.Stages) != 4 {
		t.Fatalf("expected 4 default stages, got %d", len(funnel.Stages))
	}
	if funnel.Stages[0].Name != "Lead" {
		t.Errorf("expected first stage Lead, got %q", funnel.Stages[0].Name)
	}

	if len(eventRepo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(eventRepo.events))
	}
	event := eventRepo.events[0]
	if event.Type != entities.EventConversationStarted {
		t.Errorf("unexpected event type %q", event.Type)
	}
	if event.StageID != funnel.Stages[0].ID {
		t.Error("conversation should start on the first stage")
	}
	if event.WhatsappNumber != "5511999990000" {
		t.Errorf("unexpected whatsapp_number %q", event.WhatsappNumber)
	}

	metadata, err := entities.DecodeConversation(event.Metadata)
	if err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if metadata.MessageCount != 1 {
		t.Errorf("expected messageCount 1, got %d", metadata.MessageCount)
	}
	if len(metadata.Interactions) != 1 || metadata.Interactions[0].Direction != entities.DirectionInbound {
		t.Error("expected a single inbound interaction")
	}
}

func TestProcessIncomingMessageAppendsToExistingConversation(t *testing.T) {
	uc, _, eventRepo := newWhatsAppWebhookFixture(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := uc.ProcessIncomingMessage(IncomingMessage{
			PhoneNumberID: "555000",
			From:          "5511999990000",
			MessageID:     fmt.Sprintf("wamid.%d", i),
			Type:          "text",
			Body:          "mensagem",
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
	}

	if len(eventRepo.events) != 1 {
		t.Fatalf("expected a single conversation row, got %d", len(eventRepo.events))
	}

	metadata, err := entities.DecodeConversation(eventRepo.events[0].Metadata)
	if err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if metadata.MessageCount != 5 {
		t.Errorf("expected messageCount 5, got %d", metadata.MessageCount)
	}
	if len(metadata.Interactions) != 5 {
		t.Errorf("expected 5 interactions, got %d", len(metadata.Interactions))
	}
	if !metadata.LastInteraction.Equal(base.Add(4 * time.Minute)) {
		t.Error("lastInteraction should track the newest message")
	}
	if eventRepo.events[0].Version != 4 {
		t.Errorf("expected 4 metadata updates, got version %d", eventRepo.events[0].Version)
	}
}

func TestProcessIncomingMessageUnknownPhoneNumberIsNoOp(t *testing.T) {
	uc, funnelRepo, eventRepo := newWhatsAppWebhookFixture(t)

	userID, err := uc.ProcessIncomingMessage(IncomingMessage{
		PhoneNumberID: "999999",
		From:          "5511999990000",
		MessageID:     "wamid.1",
		Timestamp:     time.Now(),
	})
	if err != nil {
		t.Fatalf("unknown phone_number_id should not error: %v", err)
	}
	if userID != "" {
		t.Errorf("no tenant should resolve, got %q", userID)
	}
	if len(eventRepo.events) != 0 {
		t.Error("no event should be written for an unknown phone_number_id")
	}
	if funnel, _ := funnelRepo.FindFirstByUser("user-1"); funnel != nil {
		t.Error("no funnel should be provisioned for an unknown phone_number_id")
	}
}

func TestProcessIncomingMessageSeparateSendersSeparateConversations(t *testing.T) {
	uc, _, eventRepo := newWhatsAppWebhookFixture(t)

	for _, from := range []string{"5511999990000", "5511888880000"} {
		_, err := uc.ProcessIncomingMessage(IncomingMessage{
			PhoneNumberID: "555000",
			From:          from,
			MessageID:     "wamid." + from,
			Timestamp:     time.Now(),
		})
		if err != nil {
			t.Fatalf("ProcessIncomingMessage(%s): %v", from, err)
		}
	}

	if len(eventRepo.events) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(eventRepo.events))
	}
}
