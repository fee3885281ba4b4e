package repositories

import (
	"errors"
	"time"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FunnelRepository interface {
	// FindFirstByUser retorna o funil mais recente do tenant com os
	// estágios ordenados, ou nil quando não existe nenhum.
	FindFirstByUser(userID string) (*entities.Funnel, error)

	// FindOrCreateDefault auto-provisiona o funil padrão na primeira
	// entrega de webhook de um tenant sem funil.
	FindOrCreateDefault(userID string, template []entities.StageTemplate) (*entities.Funnel, error)

	Create(funnel *entities.Funnel, template []entities.StageTemplate) error
	ListByUser(userID string) ([]entities.Funnel, error)
	CountEvents(funnelID string) (int64, error)
}

type funnelRepository struct {
	db *gorm.DB
}

func NewFunnelRepository(db *gorm.DB) FunnelRepository {
	return &funnelRepository{db}
}

func (r *funnelRepository) FindFirstByUser(userID string) (*entities.Funnel, error) {
	var funnel entities.Funnel
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" asc, created_at asc")
		}).
		First(&funnel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &funnel, nil
}

func (r *funnelRepository) FindOrCreateDefault(userID string, template []entities.StageTemplate) (*entities.Funnel, error) {
	funnel, err := r.FindFirstByUser(userID)
	if err != nil {
		return nil, err
	}
	if funnel != nil {
		return funnel, nil
	}

	now := time.Now()
	funnel = &entities.Funnel{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        "Funil Principal",
		Description: "Funil de vendas criado automaticamente",
		IsActive:    true,
		StartDate:   &now,
		CreatedAt:   now,
	}
	if err := r.Create(funnel, template); err != nil {
		return nil, err
	}
	return funnel, nil
}

func (r *funnelRepository) Create(funnel *entities.Funnel, template []entities.StageTemplate) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if funnel.ID == "" {
			funnel.ID = uuid.NewString()
		}
		if funnel.CreatedAt.IsZero() {
			funnel.CreatedAt = time.Now()
		}
		stages := make([]entities.Stage, 0, len(template))
		for _, st := range template {
			stages = append(stages, entities.Stage{
				ID:        uuid.NewString(),
				FunnelID:  funnel.ID,
				Name:      st.Name,
				Order:     st.Order,
				CreatedAt: funnel.CreatedAt,
			})
		}
		funnel.Stages = stages
		return tx.Create(funnel).Error
	})
}

func (r *funnelRepository) ListByUser(userID string) ([]entities.Funnel, error) {
	var funnels []entities.Funnel
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" asc, created_at asc")
		}).
		Find(&funnels).Error
	return funnels, err
}

func (r *funnelRepository) CountEvents(funnelID string) (int64, error) {
	var total int64
	err := r.db.Model(&entities.FunnelEvent{}).
		Where("funnel_id = ?", funnelID).
		Count(&total).Error
	return total, err
}
