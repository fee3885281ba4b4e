package repositories

import (
	"time"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *entities.Notification) error
	// ListByUser retorna as últimas 50 notificações do tenant.
	ListByUser(userID string) ([]entities.Notification, error)
	CountUnread(userID string) (int64, error)
	MarkRead(id, userID string) (int64, error)
	Delete(id, userID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db}
}

func (r *notificationRepository) Create(notification *entities.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	return r.db.Create(notification).Error
}

func (r *notificationRepository) ListByUser(userID string) ([]entities.Notification, error) {
	var notifications []entities.Notification
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(50).
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) CountUnread(userID string) (int64, error) {
	var total int64
	err := r.db.Model(&entities.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&total).Error
	return total, err
}

func (r *notificationRepository) MarkRead(id, userID string) (int64, error) {
	result := r.db.Model(&entities.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) Delete(id, userID string) (int64, error) {
	result := r.db.
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entities.Notification{})
	return result.RowsAffected, result.Error
}
