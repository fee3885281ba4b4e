package repositories

import (
	"errors"
	"time"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IntegrationRepository interface {
	// FindActive segue a convenção findFirst: no máximo uma integração
	// ativa por (tenant, plataforma), garantida por índice parcial.
	FindActive(userID string, platform entities.Platform) (*entities.Integration, error)

	// ListActiveByPlatform retorna todas as integrações ativas de uma
	// plataforma. O caminho de webhook não tem sessão, então o usecase
	// resolve o tenant comparando a configuração de cada uma.
	ListActiveByPlatform(platform entities.Platform) ([]entities.Integration, error)

	// Upsert atualiza a integração ativa existente ou cria uma nova.
	Upsert(integration *entities.Integration) (created bool, err error)

	Deactivate(userID string, platform entities.Platform) error
}

type integrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepository{db}
}

func (r *integrationRepository) FindActive(userID string, platform entities.Platform) (*entities.Integration, error) {
	var integration entities.Integration
	err := r.db.
		Where("user_id = ? AND platform = ? AND is_active = ?", userID, platform, true).
		First(&integration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

func (r *integrationRepository) ListActiveByPlatform(platform entities.Platform) ([]entities.Integration, error) {
	var integrations []entities.Integration
	err := r.db.
		Where("platform = ? AND is_active = ?", platform, true).
		Find(&integrations).Error
	return integrations, err
}

func (r *integrationRepository) Upsert(integration *entities.Integration) (bool, error) {
	existing, err := r.FindActive(integration.UserID, integration.Platform)
	if err != nil {
		return false, err
	}

	now := time.Now()
	if existing != nil {
		existing.AccessToken = integration.AccessToken
		existing.Config = integration.Config
		existing.ExpiresAt = integration.ExpiresAt
		existing.UpdatedAt = now
		if err := r.db.Save(existing).Error; err != nil {
			return false, err
		}
		*integration = *existing
		return false, nil
	}

	integration.ID = uuid.NewString()
	integration.IsActive = true
	integration.CreatedAt = now
	integration.UpdatedAt = now
	if err := r.db.Create(integration).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *integrationRepository) Deactivate(userID string, platform entities.Platform) error {
	return r.db.Model(&entities.Integration{}).
		Where("user_id = ? AND platform = ?", userID, platform).
		Update("is_active", false).Error
}
