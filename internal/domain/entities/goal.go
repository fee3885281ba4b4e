package entities

import "time"

// Métricas que uma meta pode acompanhar.
const (
	GoalMetricSales       = "sales"
	GoalMetricRevenue     = "revenue"
	GoalMetricLeads       = "leads"
	GoalMetricConversions = "conversions"
	GoalMetricClicks      = "clicks"
)

// Goal é um alvo definido pelo tenant para uma métrica nomeada.
// O flag notified é one-shot: impede notificação duplicada de conclusão.
type Goal struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey;column:id"`
	UserID      string     `json:"user_id" gorm:"type:uuid;column:user_id;index"`
	Title       string     `json:"title" gorm:"column:title"`
	Description string     `json:"description" gorm:"column:description"`
	TargetValue float64    `json:"target_value" gorm:"column:target_value"`
	CurrentValue float64   `json:"current_value" gorm:"column:current_value;default:0"`
	Metric      string     `json:"metric" gorm:"column:metric"`
	Platform    string     `json:"platform" gorm:"column:platform;default:ALL"`
	EndDate     time.Time  `json:"end_date" gorm:"column:end_date"`
	IsActive    bool       `json:"is_active" gorm:"column:is_active;default:true"`
	IsCompleted bool       `json:"is_completed" gorm:"column:is_completed;default:false"`
	CompletedAt *time.Time `json:"completed_at" gorm:"column:completed_at"`
	Notified    bool       `json:"notified" gorm:"column:notified;default:false"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at"`
}
