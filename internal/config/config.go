package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LLM providers the classifier can run on.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

type Config struct {
	LLMProvider  string
	GroqAPIKey   string
	GeminiAPIKey string
	LLMModel     string

	SMBaseURL     string
	SMArea        string
	SMRequesterID string

	Port    string
	DataDir string
}

func Load() (*Config, error) {
	// .env is optional — env vars may already be set (e.g. in production)
	_ = godotenv.Load()

	cfg := &Config{
		LLMProvider:   os.Getenv("LLM_PROVIDER"),
		GroqAPIKey:    os.Getenv("GROQ_API_KEY"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		LLMModel:      os.Getenv("LLM_MODEL"),
		SMBaseURL:     os.Getenv("SM_BASE_URL"),
		SMArea:        os.Getenv("SM_AREA"),
		SMRequesterID: os.Getenv("SM_REQUESTER_ID"),
		Port:          os.Getenv("PORT"),
		DataDir:       os.Getenv("DATA_DIR"),
	}

	if cfg.LLMProvider == "" {
		cfg.LLMProvider = ProviderGroq
	}
	if cfg.LLMProvider != ProviderGroq && cfg.LLMProvider != ProviderGemini {
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (want %q or %q)",
			cfg.LLMProvider, ProviderGroq, ProviderGemini)
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}

	required := []struct {
		name, val string
	}{
		{"SM_BASE_URL", cfg.SMBaseURL},
	}
	switch cfg.LLMProvider {
	case ProviderGroq:
		required = append(required, struct{ name, val string }{"GROQ_API_KEY", cfg.GroqAPIKey})
	case ProviderGemini:
		required = append(required, struct{ name, val string }{"GEMINI_API_KEY", cfg.GeminiAPIKey})
	}

	for _, req := range required {
		if req.val == "" {
			return nil, fmt.Errorf("required env var %s is not set", req.name)
		}
	}

	return cfg, nil
}
