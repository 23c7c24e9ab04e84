// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

// Supported LLM providers. Both speak the OpenAI-compatible API.
const (
	ProviderOllama = "ollama"
	ProviderGroq   = "groq"
)

const (
	DefaultOllamaHost = "http://localhost:11434/v1"
	DefaultGroqHost   = "https://api.groq.com/openai/v1"
	DefaultGroqModel  = "llama-3.1-70b-versatile"
)

type Config struct {
	// Provider selects the LLM backend: "ollama" or "groq".
	Provider string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// LLMHost is the base URL for the chat completion API.
	// Example: "https://api.groq.com/openai/v1"
	LLMHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "nomic-embed-text"
	EmbeddingModel string

	// LLMModel is the model identifier used for query parsing and re-ranking.
	// Example: "llama3.2", "llama-3.1-70b-versatile"
	LLMModel string

	// APIKey authenticates against hosted providers. Required for groq.
	APIKey string

	// LLMTimeout bounds a single completion attempt.
	// Default: 30s
	LLMTimeout time.Duration

	// EmbeddingTimeout bounds a single embedding call.
	// Default: 30s
	EmbeddingTimeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// transient failures.
	// Default: 2
	MaxRetries int

	// RetryDelay is the initial backoff delay; it doubles per retry.
	// Default: 1s
	RetryDelay time.Duration

	// RequestsPerMinute caps outgoing completions. Zero disables the limit.
	// Default: 0 for ollama, 30 for groq
	RequestsPerMinute int

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit breaker.
	// Default: 5
	BreakerFailures int

	// BreakerTimeout is how long the breaker stays open before probing.
	// Default: 30s
	BreakerTimeout time.Duration
}

type ConfigOption func(*Config)

func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithGroq configures the hosted Groq backend with its free tier budget.
func WithGroq(apiKey string) ConfigOption {
	return func(c *Config) {
		c.Provider = ProviderGroq
		c.LLMHost = DefaultGroqHost
		c.LLMModel = DefaultGroqModel
		c.APIKey = apiKey
		c.RequestsPerMinute = 30
	}
}

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

func WithLLMHost(host string) ConfigOption {
	return func(c *Config) {
		c.LLMHost = host
	}
}

func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.LLMHost = host
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func WithLLMModel(model string) ConfigOption {
	return func(c *Config) {
		c.LLMModel = model
	}
}

func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

func WithLLMTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.LLMTimeout = d
	}
}

func WithRetries(maxRetries int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

func WithRequestsPerMinute(rpm int) ConfigOption {
	return func(c *Config) {
		c.RequestsPerMinute = rpm
	}
}

func DefaultConfig() *Config {
	return &Config{
		Provider:         ProviderOllama,
		EmbeddingHost:    DefaultOllamaHost,
		LLMHost:          DefaultOllamaHost,
		EmbeddingModel:   "embeddinggemma",
		LLMModel:         "llama3.2",
		LLMTimeout:       30 * time.Second,
		EmbeddingTimeout: 30 * time.Second,
		MaxRetries:       2,
		RetryDelay:       time.Second,
		BreakerFailures:  5,
		BreakerTimeout:   30 * time.Second,
	}
}

func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	// OpenAI-compatible APIs are served under /v1
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.LLMHost = normalizeHost(c.LLMHost)
}

func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.Provider != ProviderOllama && c.Provider != ProviderGroq {
		return errors.New("ai config: Provider must be ollama or groq")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.LLMHost == "" {
		return errors.New("ai config: LLMHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.LLMModel == "" {
		return errors.New("ai config: LLMModel is required")
	}
	if c.Provider == ProviderGroq && c.APIKey == "" {
		return errors.New("ai config: APIKey is required for groq")
	}
	if c.MaxRetries < 0 {
		return errors.New("ai config: MaxRetries cannot be negative")
	}
	if c.RequestsPerMinute < 0 {
		return errors.New("ai config: RequestsPerMinute cannot be negative")
	}
	return nil
}
