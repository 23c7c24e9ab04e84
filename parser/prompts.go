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

import "fmt"

const systemPrompt = `You are an expert at understanding movie and TV show search queries.
Extract structured information from user queries including:
- Themes (e.g., "time travel", "revenge", "coming of age")
- Tones (dark, light, serious, comedic, inspirational, intense, relaxing, suspenseful)
- Emotions (joy, fear, sadness, awe, thrill, hope, romance, dark_tone)
- Reference titles (movies/shows mentioned)
- Constraints (language, year, genre, etc.)
- Undesired elements (things the user wants to avoid or minimize)

Pay careful attention to negative or exclusion patterns. Extract undesired elements from:
1. "with less X" / "with fewer X"
2. "without X" / "with no X"
3. "no X" / "avoid X" / "not X"
4. "minus the X" / "but without X"

If an undesired element is a tone, put it in undesired_tones. Otherwise put it in undesired_themes.

Respond with valid JSON only.`

const userPromptTemplate = `Parse this movie/TV show search query and extract information:

Query: %q

Return a JSON object with this structure:
{
  "themes": ["list of themes"],
  "tones": ["from: dark, light, serious, comedic, inspirational, intense, relaxing, suspenseful"],
  "emotions": ["from: joy, fear, sadness, awe, thrill, hope, romance, dark_tone"],
  "reference_titles": ["movies/shows mentioned as references"],
  "keywords": ["important keywords"],
  "plot_elements": ["specific plot elements"],
  "undesired_themes": ["themes to avoid"],
  "undesired_tones": ["tones to avoid"],
  "is_comparison_query": true/false,
  "is_mood_query": true/false,
  "media_type": "movie" or "tv_show" or "both",
  "genres": ["list of genres"],
  "exclude_genres": ["genres to exclude"],
  "languages": ["ISO 639-1 codes like 'en', 'hi', 'ko'"],
  "year_min": null or year,
  "year_max": null or year,
  "rating_min": null or rating (0-10),
  "runtime_min": null or minutes,
  "runtime_max": null or minutes,
  "streaming_providers": ["Netflix", "Prime Video", etc.],
  "popular_only": true/false,
  "hidden_gems": true/false,
  "search_text": "optimized text for semantic search"
}

Examples:
1. Query: "dark sci-fi movies like Interstellar with less romance"
   - themes: ["space exploration", "science fiction", "time dilation"]
   - tones: ["dark", "serious"]
   - emotions: ["awe", "dark_tone"]
   - reference_titles: ["Interstellar"]
   - undesired_themes: ["romance"]
   - genres: ["Science Fiction"]
   - media_type: "movie"
   - search_text: "dark science fiction space exploration time dilation cosmic themes"

2. Query: "lighthearted sitcoms like Friends about group of friends"
   - themes: ["friendship", "relationships", "comedy of life"]
   - tones: ["light", "comedic"]
   - emotions: ["joy", "hope"]
   - reference_titles: ["Friends"]
   - genres: ["Comedy"]
   - media_type: "tv_show"
   - search_text: "lighthearted sitcom friendship group friends comedy relationships"

3. Query: "Telugu action movies from 2020-2023 with high ratings"
   - themes: ["action", "heroism"]
   - languages: ["te"]
   - year_min: 2020
   - year_max: 2023
   - rating_min: 7.0
   - genres: ["Action"]
   - search_text: "action heroism intense fight sequences"

4. Query: "thriller without jump scares and no violence"
   - themes: ["suspense", "mystery"]
   - tones: ["suspenseful"]
   - emotions: ["thrill"]
   - undesired_themes: ["jump scares", "violence"]
   - genres: ["Thriller"]
   - search_text: "suspense mystery psychological thriller"

Now parse the query and respond with JSON only.`

func buildUserPrompt(query string) string {
	return fmt.Sprintf(userPromptTemplate, query)
}
