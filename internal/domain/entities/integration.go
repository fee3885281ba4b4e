package entities

import (
	"encoding/json"
	"time"
)

type Platform string

const (
	PlatformWhatsapp Platform = "WHATSAPP"
	PlatformHotmart  Platform = "HOTMART"
	PlatformMetaAds  Platform = "META_ADS"
)

// Integration guarda a credencial e a configuração de um tenant para
// uma plataforma externa. Config é um blob JSON serializado como texto
// e re-parseado a cada leitura.
type Integration struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey;column:id"`
	UserID      string     `json:"user_id" gorm:"type:uuid;column:user_id;index"`
	Platform    Platform   `json:"platform" gorm:"column:platform"`
	AccessToken string     `json:"-" gorm:"column:access_token"`
	Config      string     `json:"config" gorm:"column:config;type:text"`
	IsActive    bool       `json:"is_active" gorm:"column:is_active;default:true"`
	ExpiresAt   *time.Time `json:"expires_at" gorm:"column:expires_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

// IntegrationConfig cobre os campos usados pelas três plataformas;
// cada integração preenche só os seus.
type IntegrationConfig struct {
	// WhatsApp
	PhoneNumberID     string `json:"phoneNumberId,omitempty"`
	BusinessAccountID string `json:"businessAccountId,omitempty"`
	WebhookURL        string `json:"webhookUrl,omitempty"`
	// Hotmart
	HotmartID string `json:"hotmartId,omitempty"`
	Email     string `json:"email,omitempty"`
	// Meta Ads
	AdAccountID string `json:"adAccountId,omitempty"`
	AppID       string `json:"appId,omitempty"`

	ConnectedAt time.Time `json:"connectedAt"`
}

// ParseConfig re-parseia o blob de configuração.
func (i *Integration) ParseConfig() (IntegrationConfig, error) {
	var cfg IntegrationConfig
	if i.Config == "" {
		return cfg, nil
	}
	err := json.Unmarshal([]byte(i.Config), &cfg)
	return cfg, err
}

// EncodeIntegrationConfig serializa a configuração para o blob da linha.
func EncodeIntegrationConfig(cfg IntegrationConfig) (string, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Expired diz se a credencial passou do prazo (só Meta Ads define prazo).
func (i *Integration) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}
