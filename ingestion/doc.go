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


// Package ingestion loads catalog items into storage.
//
// The Importer accepts either a JSON array of items or a stream of
// newline-delimited JSON objects. Items without an id get one derived from
// their title and release year, so re-importing the same file updates
// records in place instead of duplicating them. Items that fail validation
// are counted and skipped; a malformed stream aborts the import.
package ingestion
