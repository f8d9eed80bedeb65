package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"aura-finance/internal/logger"
	"aura-finance/internal/render"
)

type Config struct {
	// Storage
	DatabaseURL string

	// OpenAI
	OpenAIAPIKey          string
	OpenAIModel           string
	OpenAITranscribeModel string

	// HTTP server
	ServerPort     string
	AllowedOrigins []string
	JWTSecret      string
	SessionTTL     time.Duration

	// Invoice letterhead
	SenderName    string
	SenderAddress string
	SenderVAT     string
	SenderEmail   string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		DatabaseURL:           getEnv("DATABASE_URL", "sqlite://aura_finance.db"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAITranscribeModel: getEnv("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "")),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		SenderName:            getEnv("SENDER_NAME", render.DefaultSender.Name),
		SenderAddress:         getEnv("SENDER_ADDRESS", render.DefaultSender.Address),
		SenderVAT:             getEnv("SENDER_VAT", render.DefaultSender.VAT),
		SenderEmail:           getEnv("SENDER_EMAIL", render.DefaultSender.Email),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: SESSION_TTL: %w", err)
	}
	config.SessionTTL = ttl

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// ValidateExtraction checks the settings the AI adapter needs.
func (c *Config) ValidateExtraction() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// Sender returns the letterhead printed on rendered invoices.
func (c *Config) Sender() render.Sender {
	return render.Sender{
		Name:    c.SenderName,
		Address: c.SenderAddress,
		VAT:     c.SenderVAT,
		Email:   c.SenderEmail,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
