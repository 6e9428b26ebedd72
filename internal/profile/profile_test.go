package profile

import (
	"os"
	"testing"
)

func TestProfileDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"LLMProvider default", "groq", profile.LLMProvider},
		{"LLMBaseURL default", "https://api.groq.com/openai/v1", profile.LLMBaseURL},
		{"LLMModel default", "llama-3.1-8b-instant", profile.LLMModel},
		{"EmbeddingProvider default", "siliconflow", profile.EmbeddingProvider},
		{"EmbeddingModel default", "BAAI/bge-m3", profile.EmbeddingModel},
		{"IntentModel default", "llama-3.1-8b-instant", profile.IntentModel},
		{"WebSearchBaseURL default", "https://api.tavily.com", profile.WebSearchBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.AIEnabled {
		t.Error("AIEnabled should be false without an API key")
	}
	if profile.LLMTimeout != 120 {
		t.Errorf("LLMTimeout: expected 120, got %d", profile.LLMTimeout)
	}
}

func TestProfileFromEnv(t *testing.T) {
	clearEnvVars()
	t.Setenv("MLMENTOR_AI_LLM_PROVIDER", "openai")
	t.Setenv("MLMENTOR_AI_LLM_API_KEY", "test-key")
	t.Setenv("MLMENTOR_WEBSEARCH_API_KEY", "tvly-test")

	profile := &Profile{}
	profile.FromEnv()

	if !profile.AIEnabled {
		t.Error("AIEnabled should be true with an API key")
	}
	if profile.LLMProvider != "openai" {
		t.Errorf("LLMProvider: expected openai, got %s", profile.LLMProvider)
	}
	if profile.LLMBaseURL != "https://api.openai.com/v1" {
		t.Errorf("LLMBaseURL: expected provider default, got %s", profile.LLMBaseURL)
	}
	if profile.WebSearchAPIKey != "tvly-test" {
		t.Errorf("WebSearchAPIKey: expected tvly-test, got %s", profile.WebSearchAPIKey)
	}
}

func TestUnknownProviderFallsBack(t *testing.T) {
	clearEnvVars()
	t.Setenv("MLMENTOR_AI_LLM_PROVIDER", "bogus")

	profile := &Profile{}
	profile.FromEnv()

	if profile.LLMProvider != "groq" {
		t.Errorf("unknown provider should fall back to groq, got %s", profile.LLMProvider)
	}
}

func TestValidateSQLiteDSN(t *testing.T) {
	clearEnvVars()

	dir := t.TempDir()
	profile := &Profile{
		Mode:   "dev",
		Data:   dir,
		Driver: "sqlite",
	}
	if err := profile.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if profile.DSN == "" {
		t.Error("DSN should be derived from data dir for sqlite")
	}
}

func clearEnvVars() {
	for _, key := range []string{
		"MLMENTOR_AI_LLM_PROVIDER",
		"MLMENTOR_AI_LLM_API_KEY",
		"MLMENTOR_AI_LLM_BASE_URL",
		"MLMENTOR_AI_LLM_MODEL",
		"MLMENTOR_AI_EMBEDDING_PROVIDER",
		"MLMENTOR_AI_EMBEDDING_API_KEY",
		"MLMENTOR_AI_INTENT_MODEL",
		"MLMENTOR_WEBSEARCH_API_KEY",
		"MLMENTOR_WEBSEARCH_BASE_URL",
		"MLMENTOR_JWT_SECRET",
	} {
		os.Unsetenv(key)
	}
}
