package entities

import (
	"encoding/json"
	"time"
)

// Interaction é uma mensagem dentro de uma conversa do WhatsApp.
type Interaction struct {
	MessageID string    `json:"messageId"`
	Type      string    `json:"type"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	Direction string    `json:"direction"` // inbound | outbound
}

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// ConversationMetadata é o payload de um evento whatsapp_conversation_started.
// Serializado como texto na coluna metadata e re-parseado a cada leitura.
type ConversationMetadata struct {
	WhatsappNumber  string        `json:"whatsappNumber"`
	PhoneNumberID   string        `json:"phoneNumberId"`
	Interactions    []Interaction `json:"interactions"`
	FirstContact    time.Time     `json:"firstContact"`
	LastInteraction time.Time     `json:"lastInteraction"`
	MessageCount    int           `json:"messageCount"`
	Source          string        `json:"source"`
}

// AppendInteraction adiciona uma interação e recalcula os derivados.
func (m *ConversationMetadata) AppendInteraction(it Interaction) {
	m.Interactions = append(m.Interactions, it)
	m.LastInteraction = it.Timestamp
	m.MessageCount = len(m.Interactions)
}

const (
	PurchaseStatusDelayed  = "delayed"
	PurchaseStatusCanceled = "canceled"
)

// PurchaseMetadata é o payload de eventos hotmart_purchase_complete e
// hotmart_checkout_started.
type PurchaseMetadata struct {
	BuyerEmail    string     `json:"buyerEmail"`
	BuyerName     string     `json:"buyerName,omitempty"`
	ProductName   string     `json:"productName,omitempty"`
	ProductID     string     `json:"productId,omitempty"`
	TransactionID string     `json:"transactionId"`
	Price         float64    `json:"price"`
	Status        string     `json:"status"`
	ApprovedDate  int64      `json:"approvedDate,omitempty"`
	CanceledAt    *time.Time `json:"canceledAt,omitempty"`
	Source        string     `json:"source"`
}

// Canceled diz se a compra foi mutada para cancelada após o registro.
func (m *PurchaseMetadata) Canceled() bool {
	return m.Status == PurchaseStatusCanceled
}

// DecodeConversation decodifica o metadata de um evento de conversa.
func DecodeConversation(raw string) (ConversationMetadata, error) {
	var m ConversationMetadata
	err := json.Unmarshal([]byte(raw), &m)
	return m, err
}

// DecodePurchase decodifica o metadata de um evento de compra/checkout.
func DecodePurchase(raw string) (PurchaseMetadata, error) {
	var m PurchaseMetadata
	err := json.Unmarshal([]byte(raw), &m)
	return m, err
}

// EncodeMetadata serializa qualquer metadata para a coluna de texto.
func EncodeMetadata(m interface{}) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
