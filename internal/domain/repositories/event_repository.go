package repositories

import (
	"errors"
	"time"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRepository acessa funnel_events. Toda consulta é escopada pelo
// funil, e portanto pelo tenant dono do funil.
type EventRepository interface {
	Create(event *entities.FunnelEvent) error

	// UpdateMetadata grava o metadata mutado e incrementa a versão.
	UpdateMetadata(event *entities.FunnelEvent) error

	// FindLatestConversation retorna a conversa mais recente do funil
	// com o número informado, ou nil quando não há nenhuma.
	FindLatestConversation(funnelID, whatsappNumber string) (*entities.FunnelEvent, error)

	// FindByTransaction localiza a compra por igualdade exata na coluna
	// indexada transaction_id, ou nil quando não há match.
	FindByTransaction(funnelID string, eventType entities.EventType, transactionID string) (*entities.FunnelEvent, error)

	FindByID(funnelID, id string) (*entities.FunnelEvent, error)
	CountByType(funnelID string, eventType entities.EventType, since time.Time) (int64, error)
	FindByType(funnelID string, eventType entities.EventType, since time.Time) ([]entities.FunnelEvent, error)
	ListConversations(funnelID string, limit, offset int) ([]entities.FunnelEvent, int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db}
}

func (r *eventRepository) Create(event *entities.FunnelEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	return r.db.Create(event).Error
}

func (r *eventRepository) UpdateMetadata(event *entities.FunnelEvent) error {
	event.Version++
	event.UpdatedAt = time.Now()
	return r.db.Model(&entities.FunnelEvent{}).
		Where("id = ? AND funnel_id = ?", event.ID, event.FunnelID).
		Updates(map[string]interface{}{
			"metadata":   event.Metadata,
			"version":    event.Version,
			"updated_at": event.UpdatedAt,
		}).Error
}

func (r *eventRepository) FindLatestConversation(funnelID, whatsappNumber string) (*entities.FunnelEvent, error) {
	var event entities.FunnelEvent
	err := r.db.
		Where("funnel_id = ? AND event_type = ? AND whatsapp_number = ?",
			funnelID, entities.EventConversationStarted, whatsappNumber).
		Order("timestamp desc").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByTransaction(funnelID string, eventType entities.EventType, transactionID string) (*entities.FunnelEvent, error) {
	if transactionID == "" {
		return nil, nil
	}
	var event entities.FunnelEvent
	err := r.db.
		Where("funnel_id = ? AND event_type = ? AND transaction_id = ?", funnelID, eventType, transactionID).
		Order("timestamp desc").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByID(funnelID, id string) (*entities.FunnelEvent, error) {
	var event entities.FunnelEvent
	err := r.db.
		Where("id = ? AND funnel_id = ?", id, funnelID).
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) CountByType(funnelID string, eventType entities.EventType, since time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&entities.FunnelEvent{}).
		Where("funnel_id = ? AND event_type = ? AND timestamp >= ?", funnelID, eventType, since).
		Count(&total).Error
	return total, err
}

func (r *eventRepository) FindByType(funnelID string, eventType entities.EventType, since time.Time) ([]entities.FunnelEvent, error) {
	var events []entities.FunnelEvent
	err := r.db.
		Where("funnel_id = ? AND event_type = ? AND timestamp >= ?", funnelID, eventType, since).
		Order("timestamp desc").
		Find(&events).Error
	return events, err
}

func (r *eventRepository) ListConversations(funnelID string, limit, offset int) ([]entities.FunnelEvent, int64, error) {
	var total int64
	base := r.db.Model(&entities.FunnelEvent{}).
		Where("funnel_id = ? AND event_type = ?", funnelID, entities.EventConversationStarted)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []entities.FunnelEvent
	err := r.db.
		Where("funnel_id = ? AND event_type = ?", funnelID, entities.EventConversationStarted).
		Order("timestamp desc").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
