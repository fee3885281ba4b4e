package entities

import "time"

// User é o tenant dono de funis, integrações e metas.
// A autenticação em si é externa; aqui só carregamos a identidade.
type User struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;column:id"`
	Email     string    `json:"email" gorm:"column:email;uniqueIndex"`
	Name      string    `json:"name" gorm:"column:name"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}
