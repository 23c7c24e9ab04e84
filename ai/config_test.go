package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLMHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "llama3.2", cfg.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Zero(t, cfg.RequestsPerMinute)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.LLMHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.LLMHost)
	})

	t.Run("with groq", func(t *testing.T) {
		cfg := NewConfig(WithGroq("gsk-test"))

		assert.Equal(t, ProviderGroq, cfg.Provider)
		assert.Equal(t, DefaultGroqHost, cfg.LLMHost)
		assert.Equal(t, DefaultGroqModel, cfg.LLMModel)
		assert.Equal(t, "gsk-test", cfg.APIKey)
		assert.Equal(t, 30, cfg.RequestsPerMinute)
		// Embeddings stay local
		assert.Equal(t, DefaultOllamaHost, cfg.EmbeddingHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithLLMHost("http://llm:9090/v1"),
			WithEmbeddingModel("custom-embed"),
			WithLLMModel("custom-llm"),
			WithLLMTimeout(5*time.Second),
			WithRetries(4, 100*time.Millisecond),
			WithRequestsPerMinute(60),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://llm:9090/v1", cfg.LLMHost)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-llm", cfg.LLMModel)
		assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
		assert.Equal(t, 4, cfg.MaxRetries)
		assert.Equal(t, 100*time.Millisecond, cfg.RetryDelay)
		assert.Equal(t, 60, cfg.RequestsPerMinute)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{name: "already has /v1", host: "http://localhost:11434/v1", expected: "http://localhost:11434/v1"},
		{name: "missing /v1", host: "http://localhost:11434", expected: "http://localhost:11434/v1"},
		{name: "has trailing slash", host: "http://localhost:11434/", expected: "http://localhost:11434/v1"},
		{name: "groq path", host: DefaultGroqHost, expected: DefaultGroqHost},
		{name: "empty host", host: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, LLMHost: tt.host}

			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, tt.expected, cfg.LLMHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EmbeddingHost = "http://localhost:11434"
		cfg.Provider = " OLLAMA "

		require.NoError(t, cfg.Validate())

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, ProviderOllama, cfg.Provider)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := NewConfig(WithProvider("openrouter"))

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Provider")
	})

	t.Run("groq without api key", func(t *testing.T) {
		cfg := NewConfig(WithGroq(""))

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "APIKey")
	})

	t.Run("missing llm model", func(t *testing.T) {
		cfg := NewConfig(WithLLMModel(""))

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LLMModel")
	})

	t.Run("missing embedding host", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost(""))

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EmbeddingHost")
	})

	t.Run("negative retries", func(t *testing.T) {
		cfg := NewConfig(WithRetries(-1, time.Second))

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MaxRetries")
	})
}
