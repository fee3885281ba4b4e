package repositories

import (
	"fmt"
	"time"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookStats agrega o histórico de entregas de um tenant.
type WebhookStats struct {
	Total       int64   `json:"total"`
	Errors      int64   `json:"errors"`
	ErrorRate   string  `json:"error_rate"`
	Last24h     int64   `json:"last_24h"`
	AvgDuration float64 `json:"avg_duration_ms"`
}

type WebhookLogRepository interface {
	Create(log *entities.WebhookLog) error
	// SetError marca a linha de log depois que a reconciliação falhou,
	// preservando o payload para replay manual.
	SetError(id, message string) error
	// Finish estampa o tenant resolvido, o evento e a duração depois
	// que o processamento terminou.
	Finish(id, userID, event string, durationMs int64) error
	Stats(userID string) (*WebhookStats, error)
}

type webhookLogRepository struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepository{db}
}

func (r *webhookLogRepository) Create(log *entities.WebhookLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	if log.StatusCode == 0 {
		log.StatusCode = 200
	}
	return r.db.Create(log).Error
}

func (r *webhookLogRepository) SetError(id, message string) error {
	return r.db.Model(&entities.WebhookLog{}).
		Where("id = ?", id).
		Update("error", message).Error
}

func (r *webhookLogRepository) Finish(id, userID, event string, durationMs int64) error {
	updates := map[string]interface{}{"duration": durationMs}
	if userID != "" {
		updates["user_id"] = userID
	}
	if event != "" {
		updates["event"] = event
	}
	return r.db.Model(&entities.WebhookLog{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *webhookLogRepository) Stats(userID string) (*WebhookStats, error) {
	stats := &WebhookStats{}

	if err := r.db.Model(&entities.WebhookLog{}).
		Where("user_id = ?", userID).
		Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&entities.WebhookLog{}).
		Where("user_id = ? AND (status_code >= 400 OR error <> '')", userID).
		Count(&stats.Errors).Error; err != nil {
		return nil, err
	}

	last24h := time.Now().Add(-24 * time.Hour)
	if err := r.db.Model(&entities.WebhookLog{}).
		Where("user_id = ? AND created_at >= ?", userID, last24h).
		Count(&stats.Last24h).Error; err != nil {
		return nil, err
	}

	var avg *float64
	if err := r.db.Model(&entities.WebhookLog{}).
		Where("user_id = ? AND duration > 0", userID).
		Select("AVG(duration)").
		Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg != nil {
		stats.AvgDuration = *avg
	}

	stats.ErrorRate = "0"
	if stats.Total > 0 {
		stats.ErrorRate = fmt.Sprintf("%.2f", float64(stats.Errors)/float64(stats.Total)*100)
	}
	return stats, nil
}
