package usecases

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
)

// FunnelView é um funil da listagem do painel, com a contagem de
// eventos agregada.
type FunnelView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Stages      []entities.Stage `json:"stages"`
	EventCount  int64            `json:"eventCount"`
	CreatedAt   time.Time        `json:"created_at"`
}

type FunnelUseCase interface {
	Create(userID, name, description string) (*entities.Funnel, error)
	List(userID string) ([]FunnelView, error)
	Get(userID string) (*entities.Funnel, error)
}

type funnelUseCase struct {
	funnelRepo repositories.FunnelRepository
}

func NewFunnelUseCase(funnelRepo repositories.FunnelRepository) FunnelUseCase {
	return &funnelUseCase{funnelRepo}
}

// Create cria um funil com o template completo de sete estágios. O
// template reduzido fica reservado ao auto-provisionamento via webhook.
func (uc *funnelUseCase) Create(userID, name, description string) (*entities.Funnel, error) {
	if name == "" {
		return nil, fmt.Errorf("nome do funil é obrigatório")
	}

	funnel := &entities.Funnel{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	if err := uc.funnelRepo.Create(funnel, entities.FullStageTemplate); err != nil {
		return nil, err
	}
	return funnel, nil
}

func (uc *funnelUseCase) List(userID string) ([]FunnelView, error) {
	funnels, err := uc.funnelRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	views := make([]FunnelView, 0, len(funnels))
	for _, funnel := range funnels {
		count, err := uc.funnelRepo.CountEvents(funnel.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, FunnelView{
			ID:          funnel.ID,
			Name:        funnel.Name,
			Description: funnel.Description,
			Stages:      funnel.Stages,
			EventCount:  count,
			CreatedAt:   funnel.CreatedAt,
		})
	}
	return views, nil
}

// Get retorna o funil principal do usuário, ou nil quando nenhum
// webhook ainda o provisionou.
func (uc *funnelUseCase) Get(userID string) (*entities.Funnel, error) {
	return uc.funnelRepo.FindFirstByUser(userID)
}
