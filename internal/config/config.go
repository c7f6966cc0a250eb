package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL string

	// Upstream messaging gateway configuration
	GatewayBaseURL   string
	GatewayAPISecret string
	WhatsAppAccount  string

	// Auth configuration
	JWTSecret string

	// Admin alert email configuration (Brevo)
	BrevoAPIKey     string
	BrevoFromEmail  string
	AdminAlertEmail string

	// Payment verification configuration
	VerificationIntervalMinutes int
	ServiceName                 string
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = &Config{
		Port:                        getEnv("PORT", "8080"),
		Mode:                        getEnv("GIN_MODE", "debug"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		RedisURL:                    getEnv("REDIS_URL", ""),
		GatewayBaseURL:              getEnv("GATEWAY_BASE_URL", "https://smspro.pk"),
		GatewayAPISecret:            getEnv("GATEWAY_API_SECRET", ""),
		WhatsAppAccount:             getEnv("WHATSAPP_ACCOUNT", ""),
		JWTSecret:                   getEnv("JWT_SECRET", ""),
		BrevoAPIKey:                 getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail:              getEnv("BREVO_FROM_EMAIL", ""),
		AdminAlertEmail:             getEnv("ADMIN_ALERT_EMAIL", ""),
		VerificationIntervalMinutes: getEnvInt("VERIFICATION_INTERVAL_MINUTES", 1),
		ServiceName:                 getEnv("SERVICE_NAME", "Payment Verification Service"),
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
