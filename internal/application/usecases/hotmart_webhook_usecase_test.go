package usecases

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/cache"
)

func newHotmartFixture(t *testing.T) (HotmartWebhookUseCase, *fakeFunnelRepo, *fakeEventRepo) {
	t.Helper()
	funnelRepo := &fakeFunnelRepo{}
	eventRepo := &fakeEventRepo{}
	integrationRepo := &fakeIntegrationRepo{
		integrations: []entities.Integration{{
			ID:          "int-hot",
			UserID:      "user-1",
			Platform:    entities.PlatformHotmart,
			AccessToken: "hottok-secret",
			IsActive:    true,
		}},
	}
	uc := NewHotmartWebhookUseCase(integrationRepo, funnelRepo, eventRepo, cache.New(), NewKeyedMutex(), zap.NewNop())
	return uc, funnelRepo, eventRepo
}

func purchase(transactionID string, price float64) PurchaseData {
	return PurchaseData{
		BuyerEmail:    "buyer@example.com",
		BuyerName:     "Comprador",
		ProductName:   "Curso",
		TransactionID: transactionID,
		Price:         price,
		Status:        "APPROVED",
		ApprovedDate:  time.Now().Unix(),
		Hottok:        "hottok-secret",
	}
}

func TestProcessPurchaseCompleteRecordsSaleOnPagoStage(t *testing.T) {
	uc, funnelRepo, eventRepo := newHotmartFixture(t)

	userID, err := uc.ProcessPurchaseComplete(purchase("HP001", 297.00))
	if err != nil {
		t.Fatalf("ProcessPurchaseComplete: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("resolved user = %q, want user-1", userID)
	}

	funnel, _ := funnelRepo.FindFirstByUser("user-1")
	if funnel == nil {
		t.Fatal("expected default funnel to be auto-provisioned")
	}

	if len(eventRepo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(eventRepo.events))
	}
	event := eventRepo.events[0]
	if event.Type != entities.EventPurchaseComplete {
		t.Errorf("unexpected event type %q", event.Type)
	}
	if event.TransactionID != "HP001" {
		t.Errorf("transaction_id not promoted to column: %q", event.TransactionID)
	}

	pago := entities.FindStage(funnel.Stages, "Pago", -1)
	if event.StageID != pago.ID {
		t.Error("sale should land on the Pago stage")
	}
}

func TestProcessPurchaseCompleteIsIdempotentByTransaction(t *testing.T) {
	uc, _, eventRepo := newHotmartFixture(t)

	for i := 0; i < 3; i++ {
		if _, err := uc.ProcessPurchaseComplete(purchase("HP001", 297.00)); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	if len(eventRepo.events) != 1 {
		t.Fatalf("duplicate deliveries must not create rows, got %d", len(eventRepo.events))
	}
}

func TestProcessPurchaseCanceledMutatesOriginalPurchase(t *testing.T) {
	uc, _, eventRepo := newHotmartFixture(t)

	if _, err := uc.ProcessPurchaseComplete(purchase("HP001", 297.00)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := uc.ProcessPurchaseCanceled(purchase("HP001", 297.00)); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if len(eventRepo.events) != 1 {
		t.Fatalf("cancel must mutate, not insert; got %d rows", len(eventRepo.events))
	}

	metadata, err := entities.DecodePurchase(eventRepo.events[0].Metadata)
	if err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if !metadata.Canceled() {
		t.Error("purchase should be marked canceled")
	}
	if metadata.CanceledAt == nil {
		t.Error("canceledAt should be set")
	}

	// Venda cancelada some do faturamento lido depois.
	confirmed, revenue := ReducePurchases(eventRepo.events)
	if confirmed != 0 || revenue != 0 {
		t.Errorf("canceled sale must leave revenue, got confirmed=%d revenue=%.2f", confirmed, revenue)
	}
}

func TestProcessPurchaseCanceledBeforeCompleteIsNoOp(t *testing.T) {
	uc, funnelRepo, eventRepo := newHotmartFixture(t)

	if _, err := uc.ProcessPurchaseCanceled(purchase("HP404", 100.00)); err != nil {
		t.Fatalf("cancel of unseen purchase should not error: %v", err)
	}
	if len(eventRepo.events) != 0 {
		t.Error("cancel before complete must not write")
	}
	if funnel, _ := funnelRepo.FindFirstByUser("user-1"); funnel != nil {
		t.Error("cancel must not auto-provision a funnel")
	}

	// Uma compra posterior com a mesma transação ainda conta: não há
	// caminho canceled antes do registro.
	if _, err := uc.ProcessPurchaseComplete(purchase("HP404", 100.00)); err != nil {
		t.Fatalf("complete after stray cancel: %v", err)
	}
	confirmed, revenue := ReducePurchases(eventRepo.events)
	if confirmed != 1 || revenue != 100.00 {
		t.Errorf("expected 1 sale of 100.00, got confirmed=%d revenue=%.2f", confirmed, revenue)
	}
}

func TestProcessPurchaseDelayedRecordsCheckout(t *testing.T) {
	uc, funnelRepo, eventRepo := newHotmartFixture(t)

	data := purchase("HP002", 147.00)
	if _, err := uc.ProcessPurchaseDelayed(data); err != nil {
		t.Fatalf("ProcessPurchaseDelayed: %v", err)
	}
	// Retry da mesma transação não duplica o checkout.
	if _, err := uc.ProcessPurchaseDelayed(data); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if len(eventRepo.events) != 1 {
		t.Fatalf("expected 1 checkout event, got %d", len(eventRepo.events))
	}
	event := eventRepo.events[0]
	if event.Type != entities.EventCheckoutStarted {
		t.Errorf("unexpected event type %q", event.Type)
	}

	funnel, _ := funnelRepo.FindFirstByUser("user-1")
	checkout := entities.FindStage(funnel.Stages, "Checkout", 2)
	if event.StageID != checkout.ID {
		t.Error("delayed purchase should land on the Checkout stage")
	}

	metadata, err := entities.DecodePurchase(event.Metadata)
	if err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if metadata.Status != entities.PurchaseStatusDelayed {
		t.Errorf("expected status delayed, got %q", metadata.Status)
	}
}

func TestResolveIntegrationWithoutActiveIntegrationIsNoOp(t *testing.T) {
	funnelRepo := &fakeFunnelRepo{}
	eventRepo := &fakeEventRepo{}
	uc := NewHotmartWebhookUseCase(&fakeIntegrationRepo{}, funnelRepo, eventRepo, cache.New(), NewKeyedMutex(), zap.NewNop())

	userID, err := uc.ProcessPurchaseComplete(purchase("HP001", 297.00))
	if err != nil {
		t.Fatalf("no active integration should not error: %v", err)
	}
	if userID != "" {
		t.Errorf("no tenant should resolve, got %q", userID)
	}
	if len(eventRepo.events) != 0 {
		t.Error("no event should be written without an integration")
	}
}
