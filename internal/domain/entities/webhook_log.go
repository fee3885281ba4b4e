package entities

import "time"

// WebhookLog guarda o payload bruto de cada entrega de webhook ANTES
// da reconciliação rodar. Como o endpoint sempre responde sucesso para
// a plataforma externa, esta linha é o que permite replay manual quando
// uma escrita falha silenciosamente.
type WebhookLog struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey;column:id"`
	// UserID fica vazio até a reconciliação resolver o tenant: a linha
	// nasce antes de saber de quem é a entrega.
	UserID     string    `json:"user_id" gorm:"column:user_id;index"`
	Platform   Platform  `json:"platform" gorm:"column:platform"`
	Event      string    `json:"event" gorm:"column:event"`
	Method     string    `json:"method" gorm:"column:method"`
	Endpoint   string    `json:"endpoint" gorm:"column:endpoint"`
	Headers    string    `json:"headers" gorm:"column:headers;type:text"`
	Payload    string    `json:"payload" gorm:"column:payload;type:text"`
	Response   string    `json:"response" gorm:"column:response;type:text"`
	StatusCode int       `json:"status_code" gorm:"column:status_code;default:200"`
	Duration   int64     `json:"duration" gorm:"column:duration"`
	Error      string    `json:"error" gorm:"column:error"`
	IPAddress  string    `json:"ip_address" gorm:"column:ip_address"`
	UserAgent  string    `json:"user_agent" gorm:"column:user_agent"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;index"`
}
