package entities

import "time"

type Funnel struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey;column:id"`
	UserID      string     `json:"user_id" gorm:"type:uuid;column:user_id;index"`
	Name        string     `json:"name" gorm:"column:name"`
	Description string     `json:"description" gorm:"column:description"`
	IsActive    bool       `json:"is_active" gorm:"column:is_active;default:true"`
	StartDate   *time.Time `json:"start_date" gorm:"column:start_date"`
	EndDate     *time.Time `json:"end_date" gorm:"column:end_date"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at"`
	Stages      []Stage    `json:"stages" gorm:"foreignKey:FunnelID;references:ID"`
}

// Stage é um passo ordenado dentro de um funil. A ordenação é por
// (order, created_at) para desempate por ordem de inserção.
type Stage struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;column:id"`
	FunnelID  string    `json:"funnel_id" gorm:"type:uuid;column:funnel_id;index"`
	Name      string    `json:"name" gorm:"column:name"`
	Order     int       `json:"order" gorm:"column:\"order\""`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

// FindStage busca um estágio pelo nome com fallback posicional.
// Nunca retorna erro: se o nome não existe, usa o índice pedido e,
// se o índice também não existe, o último estágio. Retorna nil apenas
// quando o funil não tem estágio algum.
func FindStage(stages []Stage, name string, fallbackIndex int) *Stage {
	if len(stages) == 0 {
		return nil
	}
	for i := range stages {
		if stages[i].Name == name {
			return &stages[i]
		}
	}
	if fallbackIndex >= 0 && fallbackIndex < len(stages) {
		return &stages[fallbackIndex]
	}
	return &stages[len(stages)-1]
}

// FirstStage retorna o estágio de menor ordem (entrada do funil).
func FirstStage(stages []Stage) *Stage {
	if len(stages) == 0 {
		return nil
	}
	first := &stages[0]
	for i := range stages {
		if stages[i].Order < first.Order {
			first = &stages[i]
		}
	}
	return first
}

// StageTemplate descreve os estágios criados junto com um funil novo.
type StageTemplate struct {
	Name  string
	Order int
}

// DefaultStageTemplate é o template canônico usado no auto-provisionamento
// disparado por webhook, independente da plataforma que disparou.
var DefaultStageTemplate = []StageTemplate{
	{Name: "Lead", Order: 1},
	{Name: "Qualificado", Order: 2},
	{Name: "Checkout", Order: 3},
	{Name: "Pago", Order: 4},
}

// FullStageTemplate é o template completo usado quando o usuário cria
// um funil explicitamente pelo dashboard.
var FullStageTemplate = []StageTemplate{
	{Name: "Clique no Anúncio", Order: 1},
	{Name: "Abriu WhatsApp", Order: 2},
	{Name: "Primeira Mensagem", Order: 3},
	{Name: "Conversa Qualificada", Order: 4},
	{Name: "Pediu Link", Order: 5},
	{Name: "Checkout Iniciado", Order: 6},
	{Name: "Pagamento Aprovado", Order: 7},
}
