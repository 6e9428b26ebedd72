// Package ai assembles AI service configuration from the instance profile.
package ai

import (
	"errors"

	"github.com/mlmentor/mlmentor/ai/core/embedding"
	"github.com/mlmentor/mlmentor/ai/core/llm"
	"github.com/mlmentor/mlmentor/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	LLM       llm.Config
	Intent    llm.Config // lightweight classifier model, low temperature
	Embedding embedding.Config
	Enabled   bool
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.LLM = llm.Config{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   2048,
		Temperature: 0.3,
		Timeout:     p.LLMTimeout,
	}

	// Intent classification wants deterministic output; reuse the main
	// credentials when no dedicated classifier key is configured.
	intentAPIKey := p.IntentAPIKey
	if intentAPIKey == "" {
		intentAPIKey = p.LLMAPIKey
	}
	intentBaseURL := p.IntentBaseURL
	if intentBaseURL == "" {
		intentBaseURL = p.LLMBaseURL
	}
	cfg.Intent = llm.Config{
		Provider:    p.LLMProvider,
		Model:       p.IntentModel,
		APIKey:      intentAPIKey,
		BaseURL:     intentBaseURL,
		MaxTokens:   256,
		Temperature: 0,
		Timeout:     30,
	}

	cfg.Embedding = embedding.Config{
		Provider:   p.EmbeddingProvider,
		Model:      p.EmbeddingModel,
		APIKey:     p.EmbeddingAPIKey,
		BaseURL:    p.EmbeddingBaseURL,
		Dimensions: p.EmbeddingDimensions,
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.Embedding.Provider != "ollama" && c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}

	return nil
}
