package ai

import (
	"errors"

	"github.com/Arvoid00/seamless-ai/internal/profile"
)

// Config represents the model backend configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
}

// NewConfigFromProfile creates model config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		BaseURL:        p.ModelBaseURL,
		APIKey:         p.ModelAPIKey,
		ChatModel:      p.ChatModel,
		EmbeddingModel: p.EmbeddingModel,
		MaxTokens:      2048,
		Temperature:    0.7,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("model API key is required")
	}
	if c.ChatModel == "" {
		return errors.New("chat model is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("embedding model is required")
	}
	return nil
}
