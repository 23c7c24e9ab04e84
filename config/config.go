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


package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/cache"
	"github.com/poiesic/marquee/parser"
	"github.com/poiesic/marquee/reindex"
	"github.com/poiesic/marquee/rerank"
	"github.com/poiesic/marquee/search"
	"github.com/poiesic/marquee/vectorindex"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheBadger = "badger"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds the full marquee configuration.
type Config struct {
	AI      AIConfig       `yaml:"ai"`
	Storage StorageConfig  `yaml:"storage"`
	Cache   CacheConfig    `yaml:"cache"`
	Index   IndexConfig    `yaml:"index"`
	Parser  ParserConfig   `yaml:"parser"`
	Rerank  RerankConfig   `yaml:"rerank"`
	Search  search.Config  `yaml:"search"`
	Reindex reindex.Config `yaml:"reindex"`
	Import  ImportConfig   `yaml:"import"`
	Logging LoggingConfig  `yaml:"logging"`
}

// AIConfig holds model provider settings. Zero values keep the provider
// defaults from ai.DefaultConfig.
type AIConfig struct {
	Provider          string        `yaml:"provider" validate:"omitempty,oneof=ollama groq"`
	Host              string        `yaml:"host"`
	EmbeddingHost     string        `yaml:"embedding_host"`
	LLMHost           string        `yaml:"llm_host"`
	EmbeddingModel    string        `yaml:"embedding_model"`
	LLMModel          string        `yaml:"llm_model"`
	APIKey            string        `yaml:"api_key"`
	LLMTimeout        time.Duration `yaml:"llm_timeout" validate:"gte=0"`
	MaxRetries        int           `yaml:"max_retries" validate:"gte=0"`
	RetryDelay        time.Duration `yaml:"retry_delay" validate:"gte=0"`
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"gte=0"`
}

// StorageConfig locates the catalog database and index snapshot.
type StorageConfig struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path     string `yaml:"path" validate:"required_without=InMemory"`
	InMemory bool   `yaml:"in_memory"`

	// SnapshotDir stores the index snapshot as files instead of inside the
	// catalog database.
	SnapshotDir string `yaml:"snapshot_dir"`
}

// CacheConfig selects where parse and rerank results are cached.
type CacheConfig struct {
	Backend   string            `yaml:"backend" validate:"oneof=memory badger redis none"`
	Namespace string            `yaml:"namespace"`
	Redis     cache.RedisConfig `yaml:"redis"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	// Dimension pins the vector width. Zero accepts the width of the first build.
	Dimension int    `yaml:"dimension" validate:"gte=0"`
	EfSearch  int    `yaml:"ef_search" validate:"gte=0"`
	Seed      uint64 `yaml:"seed"`
}

type ParserConfig struct {
	Fallback bool          `yaml:"fallback"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

type RerankConfig struct {
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	CacheTTL    time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

type ImportConfig struct {
	BatchSize int `yaml:"batch_size" validate:"gte=0"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns a configuration that runs against a local Ollama with an
// in-process cache.
func Default() Config {
	return Config{
		Storage: StorageConfig{Path: "marquee.db"},
		Cache:   CacheConfig{Backend: CacheMemory, Namespace: "marquee"},
		Index:   IndexConfig{EfSearch: vectorindex.DefaultEfSearch, Seed: 42},
		Parser:  ParserConfig{Fallback: true, CacheTTL: parser.DefaultCacheTTL},
		Rerank:  RerankConfig{Temperature: rerank.DefaultTemperature, CacheTTL: rerank.DefaultCacheTTL},
		Search:  search.DefaultConfig(),
		Reindex: reindex.DefaultConfig(),
		Import:  ImportConfig{BatchSize: 100},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over Default, then applies defaults and
// validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills zero numeric fields and empty enums with defaults.
// Booleans are left alone.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Cache.Backend == "" {
		c.Cache.Backend = d.Cache.Backend
	}
	if c.Index.EfSearch <= 0 {
		c.Index.EfSearch = d.Index.EfSearch
	}
	if c.Parser.CacheTTL <= 0 {
		c.Parser.CacheTTL = d.Parser.CacheTTL
	}
	if c.Rerank.CacheTTL <= 0 {
		c.Rerank.CacheTTL = d.Rerank.CacheTTL
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = d.Search.DefaultLimit
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = d.Search.MaxLimit
	}
	if c.Search.RerankCandidates <= 0 {
		c.Search.RerankCandidates = d.Search.RerankCandidates
	}
	if c.Search.Retrieval.TopK <= 0 {
		c.Search.Retrieval.TopK = d.Search.Retrieval.TopK
	}
	if c.Search.Retrieval.MaxResults <= 0 {
		c.Search.Retrieval.MaxResults = d.Search.Retrieval.MaxResults
	}
	if c.Reindex.BatchSize <= 0 {
		c.Reindex.BatchSize = d.Reindex.BatchSize
	}
	if c.Reindex.PoolSize <= 0 {
		c.Reindex.PoolSize = d.Reindex.PoolSize
	}
	if c.Import.BatchSize <= 0 {
		c.Import.BatchSize = d.Import.BatchSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("%w: search.default_limit %d exceeds search.max_limit %d",
			ErrInvalid, c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("%w: cache.redis.addr is required for the redis backend", ErrInvalid)
	}
	if err := c.AI.toAI().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ProviderConfig returns the provider configuration with file values
// applied over the provider defaults.
func (c *Config) ProviderConfig() *ai.Config {
	p := c.AI.toAI()
	p.Normalize()
	return p
}

func (a AIConfig) toAI() *ai.Config {
	var opts []ai.ConfigOption
	if strings.EqualFold(a.Provider, ai.ProviderGroq) {
		opts = append(opts, ai.WithGroq(a.APIKey))
	} else if a.Provider != "" {
		opts = append(opts, ai.WithProvider(a.Provider))
	}
	if a.Host != "" {
		opts = append(opts, ai.WithHost(a.Host))
	}
	if a.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(a.EmbeddingHost))
	}
	if a.LLMHost != "" {
		opts = append(opts, ai.WithLLMHost(a.LLMHost))
	}
	if a.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(a.EmbeddingModel))
	}
	if a.LLMModel != "" {
		opts = append(opts, ai.WithLLMModel(a.LLMModel))
	}
	if a.APIKey != "" {
		opts = append(opts, ai.WithAPIKey(a.APIKey))
	}
	if a.LLMTimeout > 0 {
		opts = append(opts, ai.WithLLMTimeout(a.LLMTimeout))
	}
	if a.MaxRetries > 0 || a.RetryDelay > 0 {
		d := ai.DefaultConfig()
		retries, delay := d.MaxRetries, d.RetryDelay
		if a.MaxRetries > 0 {
			retries = a.MaxRetries
		}
		if a.RetryDelay > 0 {
			delay = a.RetryDelay
		}
		opts = append(opts, ai.WithRetries(retries, delay))
	}
	if a.RequestsPerMinute > 0 {
		opts = append(opts, ai.WithRequestsPerMinute(a.RequestsPerMinute))
	}
	return ai.NewConfig(opts...)
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, fallback, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = fallback
		}
		return []byte(val)
	})
}
