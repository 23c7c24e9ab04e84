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


// Package filter applies hard query constraints to candidate lists.
//
// Filters run in a fixed order: adult content, language, release year,
// rating, runtime, genres, streaming providers and finally the popularity
// bucket. The popularity bucket compares against the median of whatever
// survived the earlier filters, so the order is observable.
package filter
