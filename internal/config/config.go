package config

import (
	"os"
	"strconv"
	"time"
)

const defaultDiagnosisURL = "https://ai-medical-diagnosis-api-symptoms-to-results.p.rapidapi.com/api/diagnosis"

// Config holds all application configuration
type Config struct {
	Port     int
	Env      string
	LogLevel string

	OpenRouter OpenRouterConfig
	Diagnosis  DiagnosisConfig
}

// OpenRouterConfig holds LLM completion endpoint configuration
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	URL     string
	Timeout time.Duration
}

// DiagnosisConfig holds the symptom lookup endpoint configuration.
// The API key is optional; without it the lookup is skipped entirely.
type DiagnosisConfig struct {
	APIKey  string
	URL     string
	Timeout time.Duration
}

// Load loads configuration from environment variables
func Load() Config {
	return Config{
		Port:     envInt("PORT", 8080),
		Env:      envStr("ENV", "development"),
		LogLevel: envStr("LOG_LEVEL", "info"),
		OpenRouter: OpenRouterConfig{
			APIKey:  envStr("OPENROUTER_API_KEY", ""),
			Model:   envStr("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet"),
			URL:     envStr("OPENROUTER_URL", "https://openrouter.ai/api/v1/chat/completions"),
			Timeout: time.Duration(envInt("LLM_TIMEOUT_MS", 30000)) * time.Millisecond,
		},
		Diagnosis: DiagnosisConfig{
			APIKey:  envStr("RAPIDAPI_KEY", ""),
			URL:     envStr("DIAGNOSIS_URL", defaultDiagnosisURL),
			Timeout: time.Duration(envInt("DIAGNOSIS_TIMEOUT_MS", 10000)) * time.Millisecond,
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
