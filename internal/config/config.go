package config

import (
	"os"
	"strconv"
	"time"
)

// Config reúne a configuração da aplicação, carregada do ambiente.
type Config struct {
	// Servidor
	Port string

	// Auth
	JWTSecret string

	// Webhooks
	WhatsappVerifyToken string
	// EnforceSignature liga a rejeição de webhook com assinatura
	// inválida. Desligado por padrão: o comportamento histórico só
	// loga a assinatura (decisão de produto pendente).
	EnforceSignature bool

	// Limiar de conversa "não terminada": última interação mais velha
	// que StaleAfter e menos que StaleMaxInteractions interações.
	StaleAfter           time.Duration
	StaleMaxInteractions int

	// Clientes HTTP de APIs externas
	HTTPTimeout  time.Duration
	MetaGraphURL string
}

// Load lê a configuração das variáveis de ambiente com defaults.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		WhatsappVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		EnforceSignature:    getEnv("WEBHOOK_ENFORCE_SIGNATURE", "false") == "true",

		StaleAfter:           time.Duration(getEnvInt("STALE_CONVERSATION_HOURS", 24)) * time.Hour,
		StaleMaxInteractions: getEnvInt("STALE_CONVERSATION_MAX_INTERACTIONS", 5),

		HTTPTimeout:  getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		MetaGraphURL: getEnv("META_GRAPH_URL", "https://graph.facebook.com/v18.0"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
