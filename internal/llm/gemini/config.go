package gemini

import (
	"errors"
	"os"
	"time"
)

const (
	defaultModel   = "gemini-2.0-flash-lite"
	defaultTimeout = 90 * time.Second
)

type Config struct {
	APIKey string
	Model  string
	// Timeout bounds a single generation call; zero leaves the caller's deadline alone.
	Timeout time.Duration
}

// NewConfig reads GEMINI_API_KEY (or GOOGLE_GENAI_API_KEY), GEMINI_MODEL and GEMINI_TIMEOUT.
func NewConfig() (*Config, error) {
	cfg := &Config{
		APIKey:  firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_GENAI_API_KEY")),
		Model:   firstNonEmpty(os.Getenv("GEMINI_MODEL"), defaultModel),
		Timeout: defaultTimeout,
	}
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is required")
	}
	if raw := os.Getenv("GEMINI_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, errors.New("GEMINI_TIMEOUT must be a non-negative duration")
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
