package migrations

import (
	"gorm.io/gorm"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
)

// Migrate cria/atualiza o schema a partir das entidades.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.User{},
		&entities.Funnel{},
		&entities.Stage{},
		&entities.FunnelEvent{},
		&entities.Integration{},
		&entities.Goal{},
		&entities.Notification{},
		&entities.WebhookLog{},
	)
}

// AddIndexes adds indexes to the database to improve query performance
func AddIndexes(db *gorm.DB) error {
	// Caminho quente dos webhooks: correlação por transação e por
	// número de whatsapp dentro do funil.
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_funnel_events_transaction_id ON funnel_events (funnel_id, event_type, transaction_id)").Error; err != nil {
		return err
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_funnel_events_whatsapp_number ON funnel_events (funnel_id, whatsapp_number, \"timestamp\" DESC)").Error; err != nil {
		return err
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_funnel_events_type_timestamp ON funnel_events (funnel_id, event_type, \"timestamp\")").Error; err != nil {
		return err
	}

	// No máximo uma integração ativa por (tenant, plataforma).
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_integrations_active_unique ON integrations (user_id, platform) WHERE is_active").Error; err != nil {
		return err
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_funnels_user_created ON funnels (user_id, created_at DESC)").Error; err != nil {
		return err
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_stages_funnel_order ON stages (funnel_id, \"order\")").Error; err != nil {
		return err
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_goals_user_active ON goals (user_id, is_active)").Error; err != nil {
		return err
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC)").Error; err != nil {
		return err
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_webhook_logs_user_created ON webhook_logs (user_id, created_at DESC)").Error; err != nil {
		return err
	}

	return nil
}
