package entities

import "time"

type Notification struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;column:id"`
	UserID    string    `json:"user_id" gorm:"type:uuid;column:user_id;index"`
	Type      string    `json:"type" gorm:"column:type"`
	Title     string    `json:"title" gorm:"column:title"`
	Message   string    `json:"message" gorm:"column:message"`
	Link      string    `json:"link" gorm:"column:link"`
	IsRead    bool      `json:"is_read" gorm:"column:is_read;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}
