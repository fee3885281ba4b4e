package usecases

import (
	"testing"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/cache"
)

func TestIntegrationConnectValidation(t *testing.T) {
	uc := NewIntegrationUseCase(&fakeIntegrationRepo{}, cache.New())

	if _, _, err := uc.Connect("user-1", ConnectIntegrationInput{
		Platform: "TIKTOK", AccessToken: "tok",
	}); err == nil {
		t.Error("unknown platform must fail")
	}
	if _, _, err := uc.Connect("user-1", ConnectIntegrationInput{
		Platform: entities.PlatformHotmart,
	}); err == nil {
		t.Error("missing access_token must fail")
	}
	if _, _, err := uc.Connect("user-1", ConnectIntegrationInput{
		Platform: entities.PlatformWhatsapp, AccessToken: "tok",
	}); err == nil {
		t.Error("whatsapp without phoneNumberId must fail")
	}
	if _, _, err := uc.Connect("user-1", ConnectIntegrationInput{
		Platform: entities.PlatformMetaAds, AccessToken: "tok",
	}); err == nil {
		t.Error("meta_ads without adAccountId must fail")
	}
}

func TestIntegrationConnectUpsert(t *testing.T) {
	repo := &fakeIntegrationRepo{}
	uc := NewIntegrationUseCase(repo, cache.New())

	first, created, err := uc.Connect("user-1", ConnectIntegrationInput{
		Platform:      entities.PlatformWhatsapp,
		AccessToken:   "tok-1",
		PhoneNumberID: "555000",
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !created {
		t.Error("first Connect must create")
	}

	second, created, err := uc.Connect("user-1", ConnectIntegrationInput{
		Platform:      entities.PlatformWhatsapp,
		AccessToken:   "tok-2",
		PhoneNumberID: "555000",
	})
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if created {
		t.Error("reconnect must update the active row, not create")
	}
	if second.ID != first.ID {
		t.Error("reconnect must keep the same integration id")
	}
	if len(repo.integrations) != 1 {
		t.Fatalf("expected 1 row, got %d", len(repo.integrations))
	}
	if repo.integrations[0].AccessToken != "tok-2" {
		t.Error("reconnect must refresh the token")
	}

	cfg, err := repo.integrations[0].ParseConfig()
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.PhoneNumberID != "555000" {
		t.Errorf("config phoneNumberId mismatch: %q", cfg.PhoneNumberID)
	}
	if cfg.ConnectedAt.IsZero() {
		t.Error("config must record the connection time")
	}
}

func TestIntegrationStatusAndDisconnect(t *testing.T) {
	repo := &fakeIntegrationRepo{}
	uc := NewIntegrationUseCase(repo, cache.New())

	if _, _, err := uc.Connect("user-1", ConnectIntegrationInput{
		Platform:    entities.PlatformHotmart,
		AccessToken: "tok",
	}); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	statuses, err := uc.Status("user-1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("status must cover the 3 platforms, got %d", len(statuses))
	}
	byPlatform := make(map[entities.Platform]IntegrationStatus, len(statuses))
	for _, s := range statuses {
		byPlatform[s.Platform] = s
	}
	if !byPlatform[entities.PlatformHotmart].Connected {
		t.Error("hotmart should report connected")
	}
	if byPlatform[entities.PlatformHotmart].ConnectedAt == nil {
		t.Error("connected platform should expose connectedAt")
	}
	if byPlatform[entities.PlatformWhatsapp].Connected || byPlatform[entities.PlatformMetaAds].Connected {
		t.Error("unconnected platforms must report disconnected")
	}

	if err := uc.Disconnect("user-1", entities.PlatformHotmart); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	statuses, _ = uc.Status("user-1")
	for _, s := range statuses {
		if s.Connected {
			t.Errorf("%s should be disconnected", s.Platform)
		}
	}

	if err := uc.Disconnect("user-1", "TIKTOK"); err == nil {
		t.Error("unknown platform must fail")
	}
}
