package ai

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlmentor/mlmentor/internal/profile"
)

func TestNewConfigFromProfileDisabled(t *testing.T) {
	cfg := NewConfigFromProfile(&profile.Profile{})
	require.False(t, cfg.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromProfile(t *testing.T) {
	p := &profile.Profile{
		LLMProvider:         "groq",
		LLMAPIKey:           "key",
		LLMBaseURL:          "https://api.groq.com/openai/v1",
		LLMModel:            "llama-3.1-8b-instant",
		LLMTimeout:          90,
		IntentModel:         "llama-3.1-8b-instant",
		EmbeddingProvider:   "siliconflow",
		EmbeddingModel:      "BAAI/bge-m3",
		EmbeddingAPIKey:     "embed-key",
		EmbeddingBaseURL:    "https://api.siliconflow.cn/v1",
		EmbeddingDimensions: 1024,
	}

	cfg := NewConfigFromProfile(p)
	require.True(t, cfg.Enabled)
	require.NoError(t, cfg.Validate())

	// Intent classifier inherits main LLM credentials when not set.
	require.Equal(t, "key", cfg.Intent.APIKey)
	require.Equal(t, "https://api.groq.com/openai/v1", cfg.Intent.BaseURL)
	require.EqualValues(t, 0, cfg.Intent.Temperature)
	require.Equal(t, 1024, cfg.Embedding.Dimensions)
}

func TestConfigValidateMissingKey(t *testing.T) {
	p := &profile.Profile{
		LLMProvider: "ollama",
		LLMModel:    "llama3.1",
	}
	cfg := NewConfigFromProfile(p)
	require.True(t, cfg.Enabled)
	// ollama requires no API keys
	cfg.Embedding.Provider = "ollama"
	require.NoError(t, cfg.Validate())

	cfg.Embedding.Provider = "siliconflow"
	cfg.Embedding.APIKey = ""
	require.Error(t, cfg.Validate())
}
