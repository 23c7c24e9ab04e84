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


// Package retrieval finds candidate titles for a parsed query.
//
// Retrieve embeds an enriched rendering of the query, searches the vector
// index, loads catalog metadata for the hits and applies the hard
// constraint filters. The result is sorted by similarity and truncated to
// the configured size. A missing index yields no candidates rather than an
// error, so a fresh deployment can serve requests before its first rebuild.
package retrieval
