package usecases

import (
	"fmt"
	"time"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/cache"
)

// ConnectIntegrationInput carrega as credenciais de conexão de uma
// plataforma. Os campos usados dependem da plataforma.
type ConnectIntegrationInput struct {
	Platform    entities.Platform `json:"platform"`
	AccessToken string            `json:"access_token"`

	PhoneNumberID     string `json:"phoneNumberId"`
	BusinessAccountID string `json:"businessAccountId"`
	HotmartID         string `json:"hotmartId"`
	Email             string `json:"email"`
	AdAccountID       string `json:"adAccountId"`
	AppID             string `json:"appId"`
}

// IntegrationStatus é o estado de uma plataforma na tela de conexões.
// O token nunca aparece aqui.
type IntegrationStatus struct {
	Platform    entities.Platform `json:"platform"`
	Connected   bool              `json:"connected"`
	Expired     bool              `json:"expired"`
	ConnectedAt *time.Time        `json:"connectedAt,omitempty"`
}

type IntegrationUseCase interface {
	Connect(userID string, input ConnectIntegrationInput) (*entities.Integration, bool, error)
	Status(userID string) ([]IntegrationStatus, error)
	Disconnect(userID string, platform entities.Platform) error
}

type integrationUseCase struct {
	integrationRepo repositories.IntegrationRepository
	cache           *cache.Cache
}

func NewIntegrationUseCase(integrationRepo repositories.IntegrationRepository, c *cache.Cache) IntegrationUseCase {
	return &integrationUseCase{integrationRepo, c}
}

var knownPlatforms = map[entities.Platform]bool{
	entities.PlatformWhatsapp: true,
	entities.PlatformHotmart:  true,
	entities.PlatformMetaAds:  true,
}

// Connect valida as credenciais mínimas da plataforma e grava a
// integração via upsert: reconectar atualiza a linha ativa existente.
func (uc *integrationUseCase) Connect(userID string, input ConnectIntegrationInput) (*entities.Integration, bool, error) {
	if !knownPlatforms[input.Platform] {
		return nil, false, fmt.Errorf("plataforma inválida: %s", input.Platform)
	}
	if input.AccessToken == "" {
		return nil, false, fmt.Errorf("access_token é obrigatório")
	}

	cfg := entities.IntegrationConfig{ConnectedAt: time.Now()}
	switch input.Platform {
	case entities.PlatformWhatsapp:
		if input.PhoneNumberID == "" {
			return nil, false, fmt.Errorf("phoneNumberId é obrigatório para whatsapp")
		}
		cfg.PhoneNumberID = input.PhoneNumberID
		cfg.BusinessAccountID = input.BusinessAccountID
	case entities.PlatformHotmart:
		cfg.HotmartID = input.HotmartID
		cfg.Email = input.Email
	case entities.PlatformMetaAds:
		if input.AdAccountID == "" {
			return nil, false, fmt.Errorf("adAccountId é obrigatório para meta_ads")
		}
		cfg.AdAccountID = input.AdAccountID
		cfg.AppID = input.AppID
	}

	encoded, err := entities.EncodeIntegrationConfig(cfg)
	if err != nil {
		return nil, false, err
	}

	integration := &entities.Integration{
		UserID:      userID,
		Platform:    input.Platform,
		AccessToken: input.AccessToken,
		Config:      encoded,
		IsActive:    true,
	}
	created, err := uc.integrationRepo.Upsert(integration)
	if err != nil {
		return nil, false, err
	}

	uc.invalidateUserCache(userID)
	return integration, created, nil
}

// Status reporta as três plataformas, conectadas ou não.
func (uc *integrationUseCase) Status(userID string) ([]IntegrationStatus, error) {
	platforms := []entities.Platform{
		entities.PlatformWhatsapp,
		entities.PlatformHotmart,
		entities.PlatformMetaAds,
	}

	now := time.Now()
	statuses := make([]IntegrationStatus, 0, len(platforms))
	for _, platform := range platforms {
		status := IntegrationStatus{Platform: platform}

		integration, err := uc.integrationRepo.FindActive(userID, platform)
		if err != nil {
			return nil, err
		}
		if integration != nil {
			status.Connected = true
			status.Expired = integration.Expired(now)
			if cfg, err := integration.ParseConfig(); err == nil && !cfg.ConnectedAt.IsZero() {
				connectedAt := cfg.ConnectedAt
				status.ConnectedAt = &connectedAt
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (uc *integrationUseCase) Disconnect(userID string, platform entities.Platform) error {
	if !knownPlatforms[platform] {
		return fmt.Errorf("plataforma inválida: %s", platform)
	}
	if err := uc.integrationRepo.Deactivate(userID, platform); err != nil {
		return err
	}
	uc.invalidateUserCache(userID)
	return nil
}

func (uc *integrationUseCase) invalidateUserCache(userID string) {
	prefix := userID + ":"
	uc.cache.InvalidatePattern(func(key string) bool {
		return len(key) >= len(prefix) && key[:len(prefix)] == prefix
	})
}
