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


package reindex

import (
	"time"

	"github.com/poiesic/marquee/vectorindex"
)

// Config holds configuration for an index rebuild.
type Config struct {
	// BatchSize is the number of catalog items embedded per call.
	BatchSize int `yaml:"batch_size" validate:"gte=0"`

	// PoolSize is the number of batches embedded concurrently.
	PoolSize int `yaml:"pool_size" validate:"gte=0"`

	// ReportInterval is how often to report progress (number of items).
	ReportInterval int `yaml:"report_interval" validate:"gte=0"`

	// MaxRetries is the maximum number of attempts per batch.
	MaxRetries int `yaml:"max_retries" validate:"gte=0"`

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// M and EfConstruction are the HNSW build parameters.
	M              int `yaml:"m" validate:"gte=0"`
	EfConstruction int `yaml:"ef_construction" validate:"gte=0"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:      32,
		PoolSize:       4,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		M:              vectorindex.DefaultM,
		EfConstruction: vectorindex.DefaultEfConstruction,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.PoolSize <= 0 {
		c.PoolSize = d.PoolSize
	}
	if c.ReportInterval <= 0 {
		c.ReportInterval = d.ReportInterval
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.M <= 1 {
		c.M = d.M
	}
	if c.EfConstruction <= 0 {
		c.EfConstruction = d.EfConstruction
	}
	return c
}
