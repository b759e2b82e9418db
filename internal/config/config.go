package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// app config; provider specific keys are read by the provider factories
type Config struct {
	Provider      string
	VoiceProvider string
	Port          string

	Database DatabaseConfig

	RedisAddr     string
	RedisPassword string
	TranscriptTTL time.Duration

	JWTSecret      string
	DefaultCredits int
	AllowedOrigins []string

	// shared secrets of the inbound webhooks; empty rejects every call
	VoiceWebhookSecret   string
	BillingWebhookSecret string

	ReapSchedule       string
	SessionGracePeriod time.Duration

	SentryDSN   string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

var supportedProviders = map[string]bool{"gemini": true, "openai": true}

var supportedVoiceProviders = map[string]bool{"vapi": true, "local": true}

// loads configuration from environment variables, after an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Provider:             strings.ToLower(getEnvOrDefault("AI_PROVIDER", "gemini")),
		VoiceProvider:        strings.ToLower(getEnvOrDefault("VOICE_PROVIDER", "local")),
		Port:                 getEnvOrDefault("PORT", "8080"),
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			User:     getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Name:     getEnvOrDefault("POSTGRES_DB", "postgres"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
			SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		},
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		TranscriptTTL:        getEnvDuration("TRANSCRIPT_TTL", 6*time.Hour),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		VoiceWebhookSecret:   os.Getenv("VAPI_WEBHOOK_SECRET"),
		BillingWebhookSecret: os.Getenv("BILLING_WEBHOOK_SECRET"),
		DefaultCredits:       getEnvInt("DEFAULT_CREDITS", 3),
		AllowedOrigins:       splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		ReapSchedule:         getEnvOrDefault("SESSION_REAP_SCHEDULE", "@every 1m"),
		SessionGracePeriod:   getEnvDuration("SESSION_GRACE_PERIOD", 5*time.Minute),
		SentryDSN:            os.Getenv("SENTRY_DSN"),
		Environment:          getEnvOrDefault("APP_ENV", "development"),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if !supportedProviders[config.Provider] {
		return errors.New("unsupported AI provider: " + config.Provider + ". Currently supported: gemini, openai")
	}
	if !supportedVoiceProviders[config.VoiceProvider] {
		return errors.New("unsupported voice provider: " + config.VoiceProvider + ". Currently supported: vapi, local")
	}
	if config.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if config.VoiceProvider == "vapi" && config.VoiceWebhookSecret == "" {
		return errors.New("VAPI_WEBHOOK_SECRET environment variable is required when VOICE_PROVIDER=vapi")
	}
	if config.DefaultCredits < 0 {
		return errors.New("DEFAULT_CREDITS must not be negative")
	}
	if config.SessionGracePeriod < 0 {
		return errors.New("SESSION_GRACE_PERIOD must not be negative")
	}
	// API keys are validated by gemini.NewConfig / openai.NewConfig / voice.NewVapiConfig
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
