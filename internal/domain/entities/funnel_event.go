package entities

import "time"

// Tipos de evento conhecidos. Eventos de plataformas externas que não
// mapeiam para nenhum destes são aceitos e ignorados, nunca erro.
type EventType string

const (
	EventConversationStarted EventType = "whatsapp_conversation_started"
	EventPurchaseComplete    EventType = "hotmart_purchase_complete"
	EventCheckoutStarted     EventType = "hotmart_checkout_started"
	EventUnknown             EventType = "unknown"
)

// FunnelEvent registra uma ocorrência lógica (conversa iniciada, compra
// aprovada) presa a um funil e um estágio. É mutável: entregas
// posteriores de webhook para a mesma entidade lógica atualizam a linha
// existente em vez de inserir outra.
type FunnelEvent struct {
	ID       string    `json:"id" gorm:"type:uuid;primaryKey;column:id"`
	FunnelID string    `json:"funnel_id" gorm:"type:uuid;column:funnel_id;index"`
	StageID  string    `json:"stage_id" gorm:"type:uuid;column:stage_id"`
	Type     EventType `json:"event_type" gorm:"column:event_type"`

	// TransactionID é a chave de correlação de compras como coluna
	// indexada de primeira classe, em vez de busca por substring no
	// metadata serializado.
	TransactionID string `json:"transaction_id" gorm:"column:transaction_id;index"`

	// WhatsappNumber é a chave de correlação de conversas, duplicada
	// do metadata para permitir lookup exato por coluna.
	WhatsappNumber string `json:"whatsapp_number" gorm:"column:whatsapp_number;index"`

	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp;index"`
	Metadata  string    `json:"metadata" gorm:"column:metadata;type:text"`

	// Version é incrementada a cada patch de metadata (contador
	// otimista; o caminho de escrita também serializa por chave).
	Version   int       `json:"version" gorm:"column:version;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (FunnelEvent) TableName() string {
	return "funnel_events"
}

// HotmartEvent é a variante fechada dos nomes de evento que a Hotmart
// envia no envelope {event, data}.
type HotmartEvent int

const (
	HotmartUnknown HotmartEvent = iota
	HotmartPurchaseComplete
	HotmartPurchaseApproved
	HotmartPurchaseCanceled
	HotmartPurchaseRefunded
	HotmartPurchaseDelayed
	HotmartPurchaseChargeback
)

// ParseHotmartEvent mapeia o nome de evento do webhook para a variante
// fechada. Nomes não reconhecidos caem em HotmartUnknown.
func ParseHotmartEvent(name string) HotmartEvent {
	switch name {
	case "PURCHASE_COMPLETE":
		return HotmartPurchaseComplete
	case "PURCHASE_APPROVED":
		return HotmartPurchaseApproved
	case "PURCHASE_CANCELED":
		return HotmartPurchaseCanceled
	case "PURCHASE_REFUNDED":
		return HotmartPurchaseRefunded
	case "PURCHASE_DELAYED":
		return HotmartPurchaseDelayed
	case "PURCHASE_CHARGEBACK":
		return HotmartPurchaseChargeback
	default:
		return HotmartUnknown
	}
}

// IsCompletion indica se o evento representa uma compra aprovada.
func (e HotmartEvent) IsCompletion() bool {
	return e == HotmartPurchaseComplete || e == HotmartPurchaseApproved
}

// IsCancellation indica se o evento desfaz uma compra aprovada.
func (e HotmartEvent) IsCancellation() bool {
	return e == HotmartPurchaseCanceled || e == HotmartPurchaseRefunded || e == HotmartPurchaseChargeback
}
