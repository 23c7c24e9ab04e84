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


package parser

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/core"
)

const (
	llmTemperature = 0.3
	llmMaxTokens   = 1024
	llmConfidence  = 0.9
)

func (p *Parser) parseWithLLM(ctx context.Context, query string) (*core.ParsedQuery, error) {
	if p.llm == nil {
		return nil, newParseFailure(ai.ErrUnavailable)
	}

	resp, err := p.llm.CompleteJSON(ctx, systemPrompt, buildUserPrompt(query), llmTemperature, llmMaxTokens)
	if err != nil {
		return nil, newParseFailure(err)
	}

	parsed := decodeResponse(resp, query, p.logger)
	if err := core.ValidateConstraints(&parsed.Constraints); err != nil {
		return nil, newParseFailure(fmt.Errorf("%w: %w", ai.ErrInvalidResponse, err))
	}
	return parsed, nil
}

// decodeResponse reads the model's JSON object. Missing or mistyped fields
// take their zero value.
func decodeResponse(m map[string]any, query string, logger *slog.Logger) *core.ParsedQuery {
	intent := core.QueryIntent{
		RawQuery:        query,
		Themes:          stringList(m, "themes"),
		Tones:           toneList(m, "tones", logger),
		Emotions:        emotionList(m, "emotions", logger),
		ReferenceTitles: stringList(m, "reference_titles"),
		Keywords:        stringList(m, "keywords"),
		PlotElements:    stringList(m, "plot_elements"),
		UndesiredThemes: stringList(m, "undesired_themes"),
		UndesiredTones:  toneList(m, "undesired_tones", logger),
		IsComparison:    boolValue(m, "is_comparison_query"),
		IsMood:          boolValue(m, "is_mood_query"),
	}

	mediaType := core.MediaTypeBoth
	if raw, ok := m["media_type"].(string); ok && raw != "" {
		if mt, ok := core.ParseMediaType(raw); ok {
			mediaType = mt
		} else {
			logger.Debug("dropping unknown media type", "value", raw)
		}
	}

	constraints := core.QueryConstraints{
		MediaType:          mediaType,
		Genres:             stringList(m, "genres"),
		ExcludeGenres:      stringList(m, "exclude_genres"),
		Languages:          stringList(m, "languages"),
		YearMin:            optInt(m, "year_min"),
		YearMax:            optInt(m, "year_max"),
		RatingMin:          optFloat(m, "rating_min"),
		RuntimeMin:         optInt(m, "runtime_min"),
		RuntimeMax:         optInt(m, "runtime_max"),
		StreamingProviders: stringList(m, "streaming_providers"),
		PopularOnly:        boolValue(m, "popular_only"),
		HiddenGems:         boolValue(m, "hidden_gems"),
	}

	searchText, _ := m["search_text"].(string)
	searchText = strings.TrimSpace(searchText)
	if searchText == "" {
		searchText = query
	}

	return &core.ParsedQuery{
		Intent:      intent,
		Constraints: constraints,
		SearchText:  searchText,
		Confidence:  llmConfidence,
		Method:      core.ParseMethodLLM,
	}
}

func stringList(m map[string]any, key string) []string {
	var out []string
	switch v := m[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case string:
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toneList(m map[string]any, key string, logger *slog.Logger) []core.Tone {
	var out []core.Tone
	for _, s := range stringList(m, key) {
		if t, ok := core.ParseTone(s); ok {
			out = append(out, t)
			continue
		}
		logger.Debug("dropping unknown tone", "field", key, "value", s)
	}
	return out
}

func emotionList(m map[string]any, key string, logger *slog.Logger) []core.Emotion {
	var out []core.Emotion
	for _, s := range stringList(m, key) {
		if e, ok := core.ParseEmotion(s); ok {
			out = append(out, e)
			continue
		}
		logger.Debug("dropping unknown emotion", "field", key, "value", s)
	}
	return out
}

func boolValue(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

func optFloat(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return core.FloatPtr(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return core.FloatPtr(f)
	}
	return nil
}

func optInt(m map[string]any, key string) *int {
	f := optFloat(m, key)
	if f == nil {
		return nil
	}
	r := math.Round(*f)
	if r < math.MinInt32 || r > math.MaxInt32 {
		return nil
	}
	return core.IntPtr(int(r))
}
