package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/funilmetrics/funilmetrics-api/internal/application/usecases"
	"github.com/funilmetrics/funilmetrics-api/internal/config"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/observability"
)

type fakeHotmartUseCase struct {
	completed []usecases.PurchaseData
	canceled  []usecases.PurchaseData
	delayed   []usecases.PurchaseData
	userID    string
}

func (f *fakeHotmartUseCase) ProcessPurchaseComplete(data usecases.PurchaseData) (string, error) {
	f.completed = append(f.completed, data)
	return f.userID, nil
}

func (f *fakeHotmartUseCase) ProcessPurchaseCanceled(data usecases.PurchaseData) (string, error) {
	f.canceled = append(f.canceled, data)
	return f.userID, nil
}

func (f *fakeHotmartUseCase) ProcessPurchaseDelayed(data usecases.PurchaseData) (string, error) {
	f.delayed = append(f.delayed, data)
	return f.userID, nil
}

func newHotmartWebhookApp(t *testing.T, cfg *config.Config) (*fiber.App, *fakeHotmartUseCase, *fakeWebhookLogRepo) {
	t.Helper()
	useCase := &fakeHotmartUseCase{userID: "user-1"}
	logRepo := &fakeWebhookLogRepo{}
	handler := NewHotmartWebhookHandler(useCase, logRepo, cfg, observability.NewMetrics(), zap.NewNop())

	app := fiber.New()
	app.Post("/api/webhooks/hotmart", handler.Receive)
	return app, useCase, logRepo
}

const purchasePayload = `{
  "event": "%EVENT%",
  "data": {
    "buyer": {"email": "buyer@example.com", "name": "Comprador"},
    "product": {"id": 12345, "name": "Curso"},
    "purchase": {
      "transaction": "HP001",
      "approved_date": 1714000000000,
      "status": "APPROVED",
      "price": {"value": 297.0}
    }
  }
}`

func postHotmart(t *testing.T, app *fiber.App, event, hottok string) int {
	t.Helper()
	payload := bytes.ReplaceAll([]byte(purchasePayload), []byte("%EVENT%"), []byte(event))
	req := httptest.NewRequest("POST", "/api/webhooks/hotmart", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if hottok != "" {
		req.Header.Set("X-Hotmart-Hottok", hottok)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestHotmartCompleteEventRoutesToComplete(t *testing.T) {
	app, useCase, logRepo := newHotmartWebhookApp(t, &config.Config{})

	if status := postHotmart(t, app, "PURCHASE_COMPLETE", "tok"); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	if len(useCase.completed) != 1 {
		t.Fatalf("expected 1 complete dispatch, got %d", len(useCase.completed))
	}
	data := useCase.completed[0]
	if data.TransactionID != "HP001" || data.Price != 297.0 {
		t.Errorf("purchase not normalized: %+v", data)
	}
	if data.ApprovedDate != 1714000000 {
		t.Errorf("approved_date must be converted from millis to seconds, got %d", data.ApprovedDate)
	}
	if data.Hottok != "tok" {
		t.Errorf("hottok not propagated, got %q", data.Hottok)
	}
	if len(logRepo.rows) != 1 {
		t.Error("payload must be logged before processing")
	}
	if len(logRepo.finished) != 1 {
		t.Fatalf("expected 1 finish call, got %d", len(logRepo.finished))
	}
	if logRepo.finished[0].userID != "user-1" || logRepo.finished[0].event != "PURCHASE_COMPLETE" {
		t.Errorf("log row should be finished with tenant and event: %+v", logRepo.finished[0])
	}
}

func TestHotmartApprovedAlsoRoutesToComplete(t *testing.T) {
	app, useCase, _ := newHotmartWebhookApp(t, &config.Config{})
	postHotmart(t, app, "PURCHASE_APPROVED", "")
	if len(useCase.completed) != 1 {
		t.Errorf("PURCHASE_APPROVED must route to complete, got %d", len(useCase.completed))
	}
}

func TestHotmartCancellationVariantsRouteToCanceled(t *testing.T) {
	for _, event := range []string{"PURCHASE_CANCELED", "PURCHASE_REFUNDED", "PURCHASE_CHARGEBACK"} {
		app, useCase, _ := newHotmartWebhookApp(t, &config.Config{})
		postHotmart(t, app, event, "")
		if len(useCase.canceled) != 1 {
			t.Errorf("%s must route to canceled, got %d", event, len(useCase.canceled))
		}
	}
}

func TestHotmartDelayedRoutesToDelayed(t *testing.T) {
	app, useCase, _ := newHotmartWebhookApp(t, &config.Config{})
	postHotmart(t, app, "PURCHASE_DELAYED", "")
	if len(useCase.delayed) != 1 {
		t.Errorf("expected 1 delayed dispatch, got %d", len(useCase.delayed))
	}
}

func TestHotmartUnknownEventIsAckedAndIgnored(t *testing.T) {
	app, useCase, _ := newHotmartWebhookApp(t, &config.Config{})

	if status := postHotmart(t, app, "PURCHASE_BILLET_PRINTED", ""); status != fiber.StatusOK {
		t.Fatalf("unknown events must still ack 200, got %d", status)
	}
	if len(useCase.completed)+len(useCase.canceled)+len(useCase.delayed) != 0 {
		t.Error("unknown events must not dispatch")
	}
}

func TestHotmartSignatureEnforcement(t *testing.T) {
	app, useCase, _ := newHotmartWebhookApp(t, &config.Config{EnforceSignature: true})

	if status := postHotmart(t, app, "PURCHASE_COMPLETE", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("missing hottok with enforcement on must 401, got %d", status)
	}
	if len(useCase.completed) != 0 {
		t.Error("rejected delivery must not dispatch")
	}

	// Com o flag desligado a mesma entrega passa.
	app2, useCase2, _ := newHotmartWebhookApp(t, &config.Config{EnforceSignature: false})
	if status := postHotmart(t, app2, "PURCHASE_COMPLETE", ""); status != fiber.StatusOK {
		t.Fatalf("enforcement off must accept, got %d", status)
	}
	if len(useCase2.completed) != 1 {
		t.Error("delivery without hottok must dispatch when enforcement is off")
	}
}
