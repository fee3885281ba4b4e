package usecases

import (
	"fmt"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
)

// NotificationFeed é a resposta do sino de notificações.
type NotificationFeed struct {
	Notifications []entities.Notification `json:"notifications"`
	UnreadCount   int64                   `json:"unreadCount"`
}

type NotificationUseCase interface {
	Feed(userID string) (*NotificationFeed, error)
	MarkRead(userID, notificationID string) error
	Delete(userID, notificationID string) error
}

type notificationUseCase struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationUseCase(notificationRepo repositories.NotificationRepository) NotificationUseCase {
	return &notificationUseCase{notificationRepo}
}

func (uc *notificationUseCase) Feed(userID string) (*NotificationFeed, error) {
	notifications, err := uc.notificationRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	unread, err := uc.notificationRepo.CountUnread(userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []entities.Notification{}
	}
	return &NotificationFeed{Notifications: notifications, UnreadCount: unread}, nil
}

func (uc *notificationUseCase) MarkRead(userID, notificationID string) error {
	affected, err := uc.notificationRepo.MarkRead(notificationID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("notificação não encontrada")
	}
	return nil
}

func (uc *notificationUseCase) Delete(userID, notificationID string) error {
	affected, err := uc.notificationRepo.Delete(notificationID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("notificação não encontrada")
	}
	return nil
}
