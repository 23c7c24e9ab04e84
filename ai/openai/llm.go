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


package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

const jsonInstruction = "\n\nRespond with valid JSON only."

// LLMClient implements ai.LLMClient using OpenAI-compatible chat APIs.
// Every attempt passes through a local rate limiter and a circuit breaker.
type LLMClient struct {
	model      llms.Model
	modelName  string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *slog.Logger
}

// newLLMClient is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newLLMClient(config *ai.Config) (*LLMClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible services don't require authentication
	token := config.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.LLMHost),
		openai.WithToken(token),
		openai.WithModel(config.LLMModel),
	)
	if err != nil {
		return nil, err
	}

	return newLLMClientWithModel(client, config), nil
}

func newLLMClientWithModel(model llms.Model, config *ai.Config) *LLMClient {
	logger := slog.Default().With("component", "openai-llm")

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		perSecond := rate.Limit(float64(config.RequestsPerMinute) / 60.0)
		limiter = rate.NewLimiter(perSecond, config.RequestsPerMinute)
	}

	failures := uint32(max(config.BreakerFailures, 1))
	breakerName := "llm-" + config.Provider
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Rate limits and caller cancellation say nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ai.ErrRateLimited) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	timeout := config.LLMTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &LLMClient{
		model:      model,
		modelName:  config.LLMModel,
		timeout:    timeout,
		maxRetries: max(config.MaxRetries, 0),
		retryDelay: config.RetryDelay,
		limiter:    limiter,
		breaker:    breaker,
		logger:     logger,
	}
}

// NewLLMClient creates a new JSON completion client using the provided configuration.
//
// Returns ai.LLMClient interface to enforce abstraction.
func NewLLMClient(config *ai.Config) (ai.LLMClient, error) {
	return newLLMClient(config)
}

// CompleteJSON sends the prompts and decodes the reply as a JSON object.
// Transient failures are retried with exponential backoff; rate limits and
// malformed replies are returned immediately.
func (c *LLMClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (map[string]any, error) {
	// JSON mode requires the word "json" somewhere in the prompt
	if !strings.Contains(strings.ToLower(userPrompt), "json") {
		userPrompt += jsonInstruction
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}

	var result map[string]any
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		result, err = c.attempt(ctx, content, temperature, maxTokens)
		return err
	}, c.maxRetries+1, c.retryDelay, ai.IsRetryable)
	if err != nil {
		c.logger.Warn("llm completion failed", "model", c.modelName, "err", err)
		return nil, err
	}
	return result, nil
}

func (c *LLMClient) attempt(ctx context.Context, content []llms.MessageContent, temperature float64, maxTokens int) (map[string]any, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		metrics.LLMRequestsTotal.WithLabelValues(c.modelName, "rate_limited").Inc()
		return nil, fmt.Errorf("%w: local request budget exhausted", ai.ErrRateLimited)
	}

	text, err := c.breaker.Execute(func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		response, err := c.model.GenerateContent(callCtx, content,
			llms.WithTemperature(temperature),
			llms.WithMaxTokens(maxTokens),
			llms.WithJSONMode())
		if err != nil {
			return "", classifyError(ctx, err)
		}
		if len(response.Choices) < 1 {
			return "", fmt.Errorf("%w: no choices returned from model", ai.ErrInvalidResponse)
		}
		return response.Choices[0].Content, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.LLMRequestsTotal.WithLabelValues(c.modelName, "rejected").Inc()
			return nil, fmt.Errorf("%w: %w", ai.ErrUnavailable, err)
		}
		metrics.LLMRequestsTotal.WithLabelValues(c.modelName, statusLabel(err)).Inc()
		return nil, err
	}

	result, err := decodeJSONObject(text)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.modelName, "invalid").Inc()
		c.logger.Warn("error parsing model response", "response", text, "err", err)
		return nil, err
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.modelName, "success").Inc()
	return result, nil
}

// classifyError maps a client error onto the ai error classes.
func classifyError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") {
		return fmt.Errorf("%w: %w", ai.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %w", ai.ErrTransient, err)
}

// decodeJSONObject strips markdown fences, repairs common defects and
// decodes a JSON object.
func decodeJSONObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Some models wrap the object in prose
	if start, end := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}'); start > 0 && end > start {
		text = text[start : end+1]
	}

	text = repairJSON(text)

	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrInvalidResponse, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", ai.ErrInvalidResponse)
	}
	return out, nil
}

func statusLabel(err error) string {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ai.ErrInvalidResponse):
		return "invalid"
	case errors.Is(err, ai.ErrTransient):
		return "transient"
	default:
		return "error"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
